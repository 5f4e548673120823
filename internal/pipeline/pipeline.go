// Package pipeline composes extraction, chunking, embedding, the vector index,
// the object store and the catalog into the ingestion, query and library
// operations.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bull/knowledge-pad/internal/chunker"
	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/docstore"
	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/objectstore"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// Extractor turns file bytes of a content type into pages.
type Extractor interface {
	Extract(ctx context.Context, contentType string, data []byte) ([]domain.Page, error)
}

// Embedder turns text into vectors of a fixed dimension.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Summarizer writes a short description of a document.
type Summarizer interface {
	Summarize(ctx context.Context, filename, text string) (string, error)
}

// Components are the collaborators a Pipeline is built from. Summarizer is
// optional.
type Components struct {
	Extractor  Extractor
	Embedder   Embedder
	Index      vectorindex.Index
	Objects    objectstore.Store
	Catalog    docstore.Store
	Summarizer Summarizer
}

// Options are the per-deployment settings the pipeline enforces.
type Options struct {
	Chunking      config.ChunkingConfig
	Upload        config.UploadConfig
	Search        config.SearchConfig
	PresignExpiry time.Duration
}

// OptionsFrom extracts pipeline options from the root config.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Chunking:      cfg.Chunking,
		Upload:        cfg.Upload,
		Search:        cfg.Search,
		PresignExpiry: cfg.Storage.PresignExpiry,
	}
}

// Pipeline runs ingestion, queries and library operations. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor  Extractor
	chunker    *chunker.Chunker
	embedder   Embedder
	index      vectorindex.Index
	objects    objectstore.Store
	catalog    docstore.Store
	summarizer Summarizer
	opts       Options
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a pipeline. The embedder and index must agree on dimension.
func New(c Components, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Extractor == nil || c.Embedder == nil || c.Index == nil || c.Objects == nil || c.Catalog == nil {
		return nil, fmt.Errorf("%w: pipeline needs extractor, embedder, index, object store and catalog", domain.ErrInvalidConfig)
	}
	if c.Embedder.Dimension() != c.Index.Dimension() {
		return nil, fmt.Errorf("%w: embedder %s produces %d dimensions, index expects %d; run `kpad reindex`",
			domain.ErrDimensionMismatch, c.Embedder.Name(), c.Embedder.Dimension(), c.Index.Dimension())
	}

	ch, err := chunker.New(opts.Chunking.ChunkSize, opts.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		extractor:  c.Extractor,
		chunker:    ch,
		embedder:   c.Embedder,
		index:      c.Index,
		objects:    c.Objects,
		catalog:    c.Catalog,
		summarizer: c.Summarizer,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}, nil
}
