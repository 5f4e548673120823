// Package docstore is the catalog of ingested documents.
package docstore

import (
	"context"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

// Store persists Document metadata. Get and Delete of an unknown ID fail with
// domain.ErrNotFound.
type Store interface {
	Save(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, id string) (domain.Document, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open returns the SQLite catalog at cfg.Path, or an in-memory catalog when
// the path is empty or ":memory:".
func Open(cfg config.CatalogConfig) (Store, error) {
	if cfg.Path == "" || cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	s, err := OpenSQLite(cfg.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
