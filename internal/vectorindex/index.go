// Package vectorindex stores embedding records and answers top-k similarity
// queries. Backends share the Index interface so the pipelines do not care
// whether vectors live in memory, in an embedded SQLite file or in Qdrant.
package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/bull/knowledge-pad/internal/domain"
)

// Record is one vector plus the chunk metadata needed to render a hit.
type Record struct {
	ID       string
	Vector   []float32
	Metadata domain.ChunkMetadata
}

// Hit is a search result. Higher Score is always more similar.
type Hit struct {
	ID       string
	Metadata domain.ChunkMetadata
	Score    float64
}

// Filter is an exact-match metadata filter. Empty fields match everything.
type Filter struct {
	DocumentID string
	Filename   string
}

// Empty reports whether the filter matches every record.
func (f Filter) Empty() bool {
	return f.DocumentID == "" && f.Filename == ""
}

// Match reports whether m satisfies the filter.
func (f Filter) Match(m domain.ChunkMetadata) bool {
	if f.DocumentID != "" && m.DocumentID != f.DocumentID {
		return false
	}
	if f.Filename != "" && m.Filename != f.Filename {
		return false
	}
	return true
}

// Index is the vector store capability used by the pipelines.
type Index interface {
	// Insert adds records. Inserting an existing ID replaces that record.
	// Fails with ErrDimensionMismatch before writing anything if any vector
	// has the wrong length.
	Insert(ctx context.Context, records []Record) error

	// Delete removes every record matching filter. A filter matching nothing
	// is a no-op; an empty filter is rejected.
	Delete(ctx context.Context, filter Filter) error

	// Search returns up to topK records matching filter, most similar first.
	// topK <= 0 returns an empty result.
	Search(ctx context.Context, query []float32, topK int, filter Filter) ([]Hit, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Reset drops every record.
	Reset(ctx context.Context) error

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	Dimension() int
	Metric() Metric
	Close() error
}

// RecordID derives the record ID for a chunk. It is stable across reindexing
// and unique per (document ID, page, chunk index).
func RecordID(documentID string, page, chunkIndex int) string {
	name := fmt.Sprintf("%s:%d:%d", documentID, page, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func checkDimension(want int, vec []float32, what string) error {
	if len(vec) != want {
		return fmt.Errorf("%w: %s has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, what, len(vec), want)
	}
	return nil
}

func checkRecords(want int, records []Record) error {
	for i, r := range records {
		if err := checkDimension(want, r.Vector, fmt.Sprintf("record %d", i)); err != nil {
			return err
		}
	}
	return nil
}

func requireFilter(f Filter) error {
	if f.Empty() {
		return fmt.Errorf("%w: delete needs a document_id or filename filter", domain.ErrValidation)
	}
	return nil
}

// rank orders hits by score, keeping the input order for equal scores, and
// keeps the first topK.
func rank(hits []Hit, topK int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
