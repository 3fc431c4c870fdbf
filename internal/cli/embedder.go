package cli

import (
	"context"
	"fmt"

	"ragcheck/config"
	"ragcheck/internal/adapter/embedding"
	"ragcheck/internal/port"
)

// newEmbedder builds the configured embedding provider. The returned
// closer releases provider resources and may be nil-safe to call.
func newEmbedder(ctx context.Context, cfg *config.Config) (port.Embedder, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Embedding.Provider {
	case "gemini":
		e, err := embedding.NewGeminiEmbedder(ctx, cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return e, e.Close, nil
	case "openai":
		var e *embedding.OpenAIEmbedder
		var err error
		if cfg.Embedding.BaseURL != "" {
			e, err = embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
		} else {
			e, err = embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return e, noop, nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}
