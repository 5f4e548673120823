package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bull/knowledge-pad/internal/domain"
)

// DefaultBatchSize is used when NewEmbedder is given a non-positive batch size.
const DefaultBatchSize = 64

// Embedder batches texts through a lazily loaded Model and checks that every
// vector has the configured dimension.
type Embedder struct {
	load      Loader
	name      string
	dimension int
	batchSize int

	mu    sync.Mutex
	model Model
}

// NewEmbedder creates an Embedder. name and dimension describe the model the
// loader is expected to produce; the vector index is created from them
// before the model is ever loaded.
func NewEmbedder(load Loader, name string, dimension, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		load:      load,
		name:      name,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Name returns the configured model name.
func (e *Embedder) Name() string { return e.name }

// Dimension returns the configured vector dimension.
func (e *Embedder) Dimension() int { return e.dimension }

// Model returns the loaded model, loading it on first use.
func (e *Embedder) Model(ctx context.Context) (Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		return e.model, nil
	}

	m, err := e.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrModelUnavailable, e.name, err)
	}
	if m.Dimension() != e.dimension {
		return nil, fmt.Errorf("%w: model %s produces %d dimensions, configured %d",
			domain.ErrDimensionMismatch, m.Name(), m.Dimension(), e.dimension)
	}
	e.model = m
	return m, nil
}

// Reset drops the loaded model so the next call reloads it.
func (e *Embedder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = nil
}

// Embed returns one vector per text, in input order. Texts must be non-empty.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrValidation, i)
		}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	m, err := e.Model(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		vectors, err := m.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("batch %d-%d: model returned %d vectors for %d texts", i, end, len(vectors), len(batch))
		}
		for j, v := range vectors {
			if len(v) != e.dimension {
				return nil, fmt.Errorf("%w: text %d has %d dimensions, expected %d",
					domain.ErrDimensionMismatch, i+j, len(v), e.dimension)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
