package vectorindex

import (
	"context"
	"fmt"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

// Open builds the index backend selected by cfg with the given vector
// dimension. With rebuild set, an existing index built for another dimension
// or metric is emptied instead of rejected.
func Open(ctx context.Context, cfg config.IndexConfig, dimension int, rebuild bool) (Index, error) {
	metric, err := ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "memory":
		return NewMemory(dimension, metric), nil
	case "sqlite", "":
		idx, err := OpenSQLite(ctx, cfg.Path, dimension, metric, rebuild)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "qdrant":
		idx, err := OpenQdrant(ctx, QdrantOptions{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
			Dimension:  dimension,
			Metric:     metric,
			Rebuild:    rebuild,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
	return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidConfig, cfg.Backend)
}
