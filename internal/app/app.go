// Package app assembles the pipeline and its backends from configuration.
// Both binaries build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/docstore"
	"github.com/bull/knowledge-pad/internal/embedding"
	"github.com/bull/knowledge-pad/internal/extract"
	"github.com/bull/knowledge-pad/internal/metadata"
	"github.com/bull/knowledge-pad/internal/objectstore"
	"github.com/bull/knowledge-pad/internal/pipeline"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// App owns the opened backends.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Embedder *embedding.Embedder
	Index    vectorindex.Index
	Objects  objectstore.Store
	Catalog  docstore.Store
	Logger   *slog.Logger
}

// Build opens every backend named by cfg. rebuild lets the vector index be
// recreated when its stored dimension or metric no longer matches; only
// reindex should pass it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, rebuild bool) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	emb, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	a.Embedder = emb

	a.Index, err = vectorindex.Open(ctx, cfg.Index, emb.Dimension(), rebuild)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	a.Objects, err = objectstore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	a.Catalog, err = docstore.Open(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	components := pipeline.Components{
		Extractor: extract.NewRegistry(),
		Embedder:  emb,
		Index:     a.Index,
		Objects:   a.Objects,
		Catalog:   a.Catalog,
	}
	if cfg.Summaries.Enabled {
		gen, err := metadata.NewOpenAIGenerator(cfg.Summaries.APIKey, "", cfg.Summaries.Model)
		if err != nil {
			return nil, fmt.Errorf("summaries: %w", err)
		}
		components.Summarizer = gen
	}

	a.Pipeline, err = pipeline.New(components, pipeline.OptionsFrom(cfg), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Backends ready",
		"embedding", cfg.Embedding.Provider,
		"model", emb.Name(),
		"dimension", emb.Dimension(),
		"index", cfg.Index.Backend,
		"metric", cfg.Index.Metric,
		"storage", cfg.Storage.Backend,
	)
	ok = true
	return a, nil
}

// Close releases the index and catalog.
func (a *App) Close() error {
	var errs []error
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	if a.Catalog != nil {
		errs = append(errs, a.Catalog.Close())
	}
	return errors.Join(errs...)
}
