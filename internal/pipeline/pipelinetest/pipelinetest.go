// Package pipelinetest builds pipelines over in-memory backends for tests of
// the packages that serve them.
package pipelinetest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/docstore"
	"github.com/bull/knowledge-pad/internal/embedding"
	"github.com/bull/knowledge-pad/internal/extract"
	"github.com/bull/knowledge-pad/internal/objectstore"
	"github.com/bull/knowledge-pad/internal/pipeline"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// Backends exposes the in-memory collaborators so tests can inspect or
// swap them.
type Backends struct {
	Index   *vectorindex.Memory
	Objects objectstore.Store
	Catalog *docstore.Memory
}

// New returns a pipeline using the hash model, a memory index, a memory
// object store and a memory catalog, configured from config.Default.
func New(t testing.TB, mutate ...func(*pipeline.Components, *pipeline.Options)) (*pipeline.Pipeline, *Backends) {
	t.Helper()

	cfg := config.Default()
	emb := embedding.NewEmbedder(
		embedding.Static(embedding.NewHashModel(cfg.Embedding.Model, cfg.Embedding.Dimension)),
		cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)

	b := &Backends{
		Index:   vectorindex.NewMemory(cfg.Embedding.Dimension, vectorindex.Cosine),
		Objects: objectstore.NewMemory(),
		Catalog: docstore.NewMemory(),
	}
	c := pipeline.Components{
		Extractor: extract.NewRegistry(),
		Embedder:  emb,
		Index:     b.Index,
		Objects:   b.Objects,
		Catalog:   b.Catalog,
	}
	opts := pipeline.OptionsFrom(cfg)
	for _, m := range mutate {
		m(&c, &opts)
	}

	p, err := pipeline.New(c, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return p, b
}

// Ingest uploads a document and fails the test on error.
func Ingest(t testing.TB, p *pipeline.Pipeline, filename string, data []byte) *pipeline.IngestResult {
	t.Helper()
	res, err := p.Ingest(context.Background(), pipeline.Upload{Filename: filename, Data: data})
	require.NoError(t, err)
	return res
}
