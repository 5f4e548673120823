package embedding

import (
	"fmt"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

// NewFromConfig builds the Embedder selected by the embedding section. No
// model is loaded until the first Embed call.
func NewFromConfig(cfg config.EmbeddingConfig) (*Embedder, error) {
	var load Loader
	switch cfg.Provider {
	case "hash", "":
		load = Static(NewHashModel(cfg.Model, cfg.Dimension))
	case "openai":
		load = NewOpenAILoader(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
	case "ollama":
		load = NewOllamaLoader(OllamaConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
	return NewEmbedder(load, cfg.Model, cfg.Dimension, cfg.BatchSize), nil
}
