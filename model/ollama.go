package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// OllamaClient генерирует текст через локальный Ollama API
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float32
	numCtx      int
	client      *http.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewOllamaClient(baseURL, model string, temperature float32, numCtx int) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		numCtx:      numCtx,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *OllamaClient) Model() string {
	return c.model
}

// Complete sends the prompt to /api/generate and returns the generated text.
// Handles both a single-object body and a streamed NDJSON body.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		log.Printf("[LLM] answer took %v", time.Since(start))
	}()

	if count, err := CountTokens(prompt); err == nil {
		log.Printf("[LLM] prompt size: %d tokens, %d symbols", count, len(prompt))
	}

	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: generateOptions{
			Temperature: c.temperature,
			NumCtx:      c.numCtx,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// Потоковый ответ: соберём всё в строку
	var b strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		b.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return b.String(), nil
}

// Healthy reports whether the Ollama service answers on /api/tags.
func (c *OllamaClient) Healthy(ctx context.Context) bool {
	_, err := c.availableModels(ctx)
	return err == nil
}

// HasModel reports whether the configured model has been pulled.
func (c *OllamaClient) HasModel(ctx context.Context) (bool, error) {
	models, err := c.availableModels(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range models {
		if strings.HasPrefix(name, c.model) {
			return true, nil
		}
	}
	return false, nil
}

func (c *OllamaClient) availableModels(ctx context.Context) ([]string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama service is not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error: status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %w", err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// CountTokens approximates prompt size with a tiktoken encoding. Ollama
// models tokenize differently, the number is only for logging.
func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
