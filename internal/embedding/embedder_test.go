package embedding

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

func newHashEmbedder(batchSize int) *Embedder {
	return NewEmbedder(Static(NewHashModel("feature-hash-v1", 384)), "feature-hash-v1", 384, batchSize)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbed_Deterministic(t *testing.T) {
	e := newHashEmbedder(0)
	ctx := context.Background()

	first, err := e.Embed(ctx, []string{"vector search over my notes"})
	require.NoError(t, err)
	second, err := e.Embed(ctx, []string{"vector search over my notes"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first[0], 384)
}

func TestEmbed_BatchInvariantAndOrdered(t *testing.T) {
	e := newHashEmbedder(2)
	ctx := context.Background()

	texts := []string{"alpha beta", "gamma delta", "epsilon", "zeta eta theta", "iota"}
	batch, err := e.Embed(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := e.Embed(ctx, []string{text})
		require.NoError(t, err)
		assert.Equal(t, single[0], batch[i], "text %d", i)
	}
}

func TestEmbed_RejectsEmptyText(t *testing.T) {
	e := newHashEmbedder(0)

	_, err := e.Embed(context.Background(), []string{"fine", "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEmbed_EmptyInput(t *testing.T) {
	e := newHashEmbedder(0)

	out, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestModel_LoadFailureNotCached(t *testing.T) {
	var calls atomic.Int32
	load := func(ctx context.Context) (Model, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("weights missing")
		}
		return NewHashModel("feature-hash-v1", 16), nil
	}
	e := NewEmbedder(load, "feature-hash-v1", 16, 0)
	ctx := context.Background()

	_, err := e.EmbedQuery(ctx, "first try")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	v, err := e.EmbedQuery(ctx, "second try")
	require.NoError(t, err)
	assert.Len(t, v, 16)
	assert.Equal(t, int32(2), calls.Load())
}

func TestModel_LoadedOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	load := func(ctx context.Context) (Model, error) {
		calls.Add(1)
		return NewHashModel("feature-hash-v1", 32), nil
	}
	e := NewEmbedder(load, "feature-hash-v1", 32, 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.EmbedQuery(context.Background(), "concurrent query")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestModel_Reset(t *testing.T) {
	var calls atomic.Int32
	load := func(ctx context.Context) (Model, error) {
		calls.Add(1)
		return NewHashModel("feature-hash-v1", 8), nil
	}
	e := NewEmbedder(load, "feature-hash-v1", 8, 0)
	ctx := context.Background()

	_, err := e.Model(ctx)
	require.NoError(t, err)
	e.Reset()
	_, err = e.Model(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestModel_DimensionMismatch(t *testing.T) {
	e := NewEmbedder(Static(NewHashModel("feature-hash-v1", 128)), "feature-hash-v1", 384, 0)

	_, err := e.EmbedQuery(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

type shortModel struct{}

func (shortModel) Name() string   { return "short" }
func (shortModel) Dimension() int { return 4 }
func (shortModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func TestEmbed_VectorLengthChecked(t *testing.T) {
	e := NewEmbedder(Static(shortModel{}), "short", 4, 0)

	_, err := e.Embed(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestHashModel_RanksRelatedPageHigher(t *testing.T) {
	e := newHashEmbedder(0)
	ctx := context.Background()

	pages, err := e.Embed(ctx, []string{
		"The mitochondria is the powerhouse of the cell.",
		"Photosynthesis occurs in chloroplasts.",
	})
	require.NoError(t, err)
	query, err := e.EmbedQuery(ctx, "what produces energy in a cell")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, pages[0]), cosine(query, pages[1]))
}

func TestHashModel_Normalized(t *testing.T) {
	m := NewHashModel("", 64)
	assert.Equal(t, "feature-hash-v1", m.Name())

	out, err := m.Embed(context.Background(), []string{"some words here", "the of a"})
	require.NoError(t, err)

	var norm float64
	for _, v := range out[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)

	// Only stopwords: zero vector
	for _, v := range out[1] {
		assert.Zero(t, v)
	}
}

func TestNewFromConfig(t *testing.T) {
	e, err := NewFromConfig(config.EmbeddingConfig{Provider: "hash", Model: "feature-hash-v1", Dimension: 384})
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())
	assert.Equal(t, "feature-hash-v1", e.Name())

	_, err = NewFromConfig(config.EmbeddingConfig{Provider: "word2vec"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestOpenAILoader_RequiresAPIKey(t *testing.T) {
	e := NewEmbedder(NewOpenAILoader(OpenAIConfig{Model: "text-embedding-3-small", Dimension: 1536}),
		"text-embedding-3-small", 1536, 0)

	_, err := e.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1, 0}, toFloat32([]float64{0.5, -1, 0}))
}
