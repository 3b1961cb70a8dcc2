package model

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_NormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "Table: orders", req.Prompt)

		w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	vec, err := e.Embed("Table: orders")
	require.NoError(t, err)

	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var length float64
	for _, v := range vec {
		length += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(length), 1e-6)
}

func TestEmbed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	_, err := e.Embed("anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestNormalize64_ZeroVector(t *testing.T) {
	vec := []float64{0, 0, 0}
	assert.Equal(t, []float64{0, 0, 0}, normalize64(vec))
}
