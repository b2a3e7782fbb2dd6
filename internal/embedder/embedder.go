package embedder

import (
	"context"
	"fmt"
	"os"

	"guidesearch/internal/config"
)

// Embedder maps text to fixed-dimension vectors. Embedding failures are not
// retried at this layer.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Model returns the configured model name. A collection is bound to one
	// model; callers must not switch models without migrating the collection.
	Model() string
}

// New builds the embedder selected by the configuration.
func New(cfg *config.EmbedderConfig) (Embedder, error) {
	switch cfg.Type {
	case "openai":
		key := os.Getenv(cfg.OpenAI.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedder: %s is not set", cfg.OpenAI.APIKeyEnv)
		}
		return NewOpenAIEmbedder(key, cfg.OpenAI.Model), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	default:
		return nil, fmt.Errorf("embedder: unknown type %q", cfg.Type)
	}
}
