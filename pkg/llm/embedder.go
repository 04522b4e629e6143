package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// EmbedderConfig represents the configuration for an embedder. Model
// and BaseURL are required; defaults live in pkg/config.
type EmbedderConfig struct {
	Model   string
	APIKey  string
	BaseURL string // OpenAI-compatible embeddings endpoint
}

// Embedder maps texts to fixed-dimensionality vectors using a hosted
// embedding model. Identical text and model always produce the same
// vector.
type Embedder struct {
	Config EmbedderConfig
	embed  *openai.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}

	embed, err := openai.New(
		openai.WithToken(config.APIKey),
		openai.WithBaseURL(config.BaseURL),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		Config: config,
		embed:  embed,
	}, nil
}

// CreateEmbedding returns one vector per input text, in input order.
func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embed.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
