package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guidesearch/internal/config"
)

func TestOllamaEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)

		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0}, {0, 1}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	got, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestOllamaEmbedCountMismatchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestOllamaEmbedEmptyInput(t *testing.T) {
	e := NewOllamaEmbedder("http://localhost:0", "nomic-embed-text")
	got, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(&config.EmbedderConfig{Type: "word2vec"})
	assert.Error(t, err)
}

func TestNewRequiresOpenAIKey(t *testing.T) {
	t.Setenv("GUIDESEARCH_TEST_KEY", "")
	_, err := New(&config.EmbedderConfig{
		Type:   "openai",
		OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "GUIDESEARCH_TEST_KEY", Model: "text-embedding-3-small"},
	})
	assert.Error(t, err)
}
