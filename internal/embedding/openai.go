package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIModel generates embeddings with the OpenAI embeddings API.
// It retries with exponential backoff on rate limit errors.
type OpenAIModel struct {
	client    *openai.Client
	model     string
	dimension int
}

// OpenAIConfig configures the OpenAI loader.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // optional, for OpenAI-compatible servers
	Model     string
	Dimension int
}

// NewOpenAILoader returns a Loader that builds an OpenAI client. Loading fails
// if no API key is configured.
func NewOpenAILoader(cfg OpenAIConfig) Loader {
	return func(ctx context.Context) (Model, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := openai.NewClient(opts...)

		return &OpenAIModel{
			client:    &client,
			model:     cfg.Model,
			dimension: cfg.Dimension,
		}, nil
	}
}

// Client returns the underlying OpenAI client for use in other packages (e.g., summaries).
func (m *OpenAIModel) Client() *openai.Client { return m.client }

// Name returns the model name.
func (m *OpenAIModel) Name() string { return m.model }

// Dimension returns the configured vector size.
func (m *OpenAIModel) Dimension() int { return m.dimension }

// Embed generates embeddings for one batch with retry logic.
// Retries with exponential backoff on rate limit errors (HTTP 429).
// Other errors are treated as permanent and fail immediately.
func (m *OpenAIModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		params := openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(m.model),
		}
		// Only the text-embedding-3 family accepts a reduced output size
		if strings.HasPrefix(m.model, "text-embedding-3") {
			params.Dimensions = openai.Int(int64(m.dimension))
		}
		resp, err := m.client.Embeddings.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		// Data is returned with an index per input; keep input order
		embeddings = make([][]float32, len(texts))
		for _, data := range resp.Data {
			if int(data.Index) < 0 || int(data.Index) >= len(texts) {
				return backoff.Permanent(fmt.Errorf("embedding index %d out of range", data.Index))
			}
			embeddings[data.Index] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but the index stores float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
