package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorStore VectorStoreConfig `yaml:"vectorstore"`
	LLM         LLMConfig         `yaml:"llm"`
	Embeddings  EmbeddingConfig   `yaml:"embeddings"`
	RAG         RAGConfig         `yaml:"rag"`
	App         AppConfig         `yaml:"app"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig is the target database the generated queries run against.
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// VectorStoreConfig is the Postgres instance holding the embedded schema
// documents. Kept separate from the target database: the schema index lives
// where pgvector is installed, the target can be any supported engine.
type VectorStoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func (v VectorStoreConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		v.Host, v.Port, v.User, v.Password, v.Name)
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type RAGConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxRetrievedDocs    int     `yaml:"max_retrieved_docs"`
}

type AppConfig struct {
	MaxQueryHistory int `yaml:"max_query_history"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Type: "postgres",
			Host: "localhost",
			Port: 5432,
		},
		VectorStore: VectorStoreConfig{
			Host: "localhost",
			Port: 5432,
		},
		LLM: LLMConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
		Embeddings: EmbeddingConfig{
			Model:     "nomic-embed-text",
			Dimension: 768,
		},
		RAG: RAGConfig{
			SimilarityThreshold: 0.7,
			MaxRetrievedDocs:    5,
		},
		App: AppConfig{MaxQueryHistory: 100},
	}
}

// Load reads the YAML config file (when present) over the defaults, then
// applies environment overrides on top. An empty path means "config.yaml".
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only setup is fine
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Server.Addr, "SERVER_ADDR")

	overrideString(&c.Database.Type, "DB_TYPE")
	overrideString(&c.Database.Host, "DB_SERVER")
	overrideInt(&c.Database.Port, "DB_PORT")
	overrideString(&c.Database.Name, "DB_NAME")
	overrideString(&c.Database.User, "DB_USERNAME")
	overrideString(&c.Database.Password, "DB_PASSWORD")

	overrideString(&c.VectorStore.Host, "PG_HOST")
	overrideInt(&c.VectorStore.Port, "PG_PORT")
	overrideString(&c.VectorStore.Name, "PG_DB_NAME")
	overrideString(&c.VectorStore.User, "PG_USER")
	overrideString(&c.VectorStore.Password, "PG_PASS")

	overrideString(&c.LLM.BaseURL, "OLLAMA_URL")
	overrideString(&c.LLM.Model, "LLM_MODEL")
	overrideString(&c.Embeddings.Model, "OLLAMA_EMBEDDING_MODEL")
	overrideInt(&c.Embeddings.Dimension, "OLLAMA_EMBEDDING_DIM")

	overrideFloat(&c.RAG.SimilarityThreshold, "SIMILARITY_THRESHOLD")
	overrideInt(&c.RAG.MaxRetrievedDocs, "MAX_RETRIEVED_DOCS")
	overrideInt(&c.App.MaxQueryHistory, "MAX_QUERY_HISTORY")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
