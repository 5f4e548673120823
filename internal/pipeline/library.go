package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/objectstore"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// Stats returns catalog and index counts plus the active model settings.
func (p *Pipeline) Stats(ctx context.Context) (domain.Stats, error) {
	docs, err := p.catalog.Count(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	chunks, err := p.index.Count(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		Documents: docs,
		Chunks:    chunks,
		Model:     p.embedder.Name(),
		Dimension: p.index.Dimension(),
		Metric:    string(p.index.Metric()),
	}, nil
}

// List returns every catalogued document, newest first.
func (p *Pipeline) List(ctx context.Context) ([]domain.Document, error) {
	return p.catalog.List(ctx)
}

// Get returns one document.
func (p *Pipeline) Get(ctx context.Context, id string) (domain.Document, error) {
	return p.catalog.Get(ctx, id)
}

// Delete removes a document's index records, then its stored object, then
// its catalog entry, so a partial failure never leaves records pointing at a
// missing object.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	doc, err := p.catalog.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := p.index.Delete(ctx, vectorindex.Filter{DocumentID: doc.ID}); err != nil {
		return fmt.Errorf("delete index records: %w", err)
	}
	if err := p.objects.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete stored object: %w", err)
	}
	if err := p.catalog.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete catalog entry: %w", err)
	}

	p.logger.Info("Deleted document", "document_id", doc.ID, "filename", doc.Filename)
	return nil
}

// Open returns a document and its original bytes.
func (p *Pipeline) Open(ctx context.Context, id string) (domain.Document, []byte, error) {
	doc, err := p.catalog.Get(ctx, id)
	if err != nil {
		return domain.Document{}, nil, err
	}
	data, err := p.objects.Get(ctx, doc.StorageKey)
	if err != nil {
		return domain.Document{}, nil, err
	}
	return doc, data, nil
}

// PresignedURL returns a direct, time-limited download URL for a document,
// or "" if the object store cannot presign.
func (p *Pipeline) PresignedURL(ctx context.Context, id string) (string, error) {
	presigner, ok := p.objects.(objectstore.Presigner)
	if !ok {
		return "", nil
	}
	doc, err := p.catalog.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return presigner.PresignGet(ctx, doc.StorageKey, doc.Filename, p.opts.PresignExpiry)
}

// FailedDoc is a document that could not be reindexed.
type FailedDoc struct {
	ID       string
	Filename string
	Reason   string
}

// ReindexResult contains statistics about a reindex run.
type ReindexResult struct {
	TotalDocs      int
	SuccessfulDocs int
	TotalChunks    int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// Reindex empties the vector index and rebuilds it from the stored originals
// with the current embedder, keeping document IDs. Documents that fail are
// reported and left without index records.
func (p *Pipeline) Reindex(ctx context.Context) (*ReindexResult, error) {
	start := time.Now()
	result := &ReindexResult{}

	docs, err := p.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	result.TotalDocs = len(docs)

	if err := p.index.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset index: %w", err)
	}
	p.logger.Info("Starting reindex", "documents", len(docs), "model", p.embedder.Name(), "dimension", p.index.Dimension())

	for _, doc := range docs {
		chunks, err := p.reindexDocument(ctx, doc)
		if err != nil {
			p.logger.Warn("Failed to reindex document", "document_id", doc.ID, "filename", doc.Filename, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{ID: doc.ID, Filename: doc.Filename, Reason: err.Error()})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Reindex complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) reindexDocument(ctx context.Context, doc domain.Document) (int, error) {
	data, err := p.objects.Get(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("fetch original: %w", err)
	}

	in := &ingestion{p: p, start: time.Now(), result: &IngestResult{Document: doc}}
	records, pages, err := p.indexPages(ctx, in, data)
	if err != nil {
		return 0, err
	}

	doc = in.result.Document
	doc.PageCount = pages
	doc.ChunkCount = len(records)
	if err := p.catalog.Save(ctx, doc); err != nil {
		p.rollbackIndex(context.WithoutCancel(ctx), doc.ID, len(records))
		return 0, fmt.Errorf("update catalog: %w", err)
	}
	return len(records), nil
}

// Health reports whether the vector index is reachable.
func (p *Pipeline) Health(ctx context.Context) error {
	return p.index.Health(ctx)
}
