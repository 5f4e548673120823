package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/extract"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// summaryInputChars bounds how much extracted text is sent to the summarizer.
const summaryInputChars = 8000

// Upload is a file submitted for ingestion.
type Upload struct {
	Filename string
	Data     []byte
}

// IngestResult reports the outcome of one ingestion. On failure State is
// StateFailed and FailedAt is the last state reached before the failing step.
type IngestResult struct {
	Document domain.Document
	State    domain.IngestState
	FailedAt domain.IngestState
	Duration time.Duration
}

// ingestion tracks one document through the state machine.
type ingestion struct {
	p      *Pipeline
	result *IngestResult
	start  time.Time
}

func (in *ingestion) advance(s domain.IngestState) {
	in.result.State = s
	in.p.logger.Debug("Ingest state", "document_id", in.result.Document.ID, "state", s)
}

func (in *ingestion) fail(err error) (*IngestResult, error) {
	in.result.FailedAt = in.result.State
	in.result.State = domain.StateFailed
	in.result.Duration = time.Since(in.start)
	in.p.logger.Warn("Ingest failed",
		"document_id", in.result.Document.ID,
		"filename", in.result.Document.Filename,
		"failed_at", in.result.FailedAt,
		"error", err,
	)
	return in.result, err
}

// Ingest validates, extracts, chunks, embeds and indexes an upload, stores
// its bytes and records it in the catalog. Every call creates a new document,
// even for identical bytes.
//
// If storing the bytes fails after records were indexed, those records are
// deleted before the error is returned. If the catalog write fails, both the
// object and the records are removed.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*IngestResult, error) {
	in := &ingestion{
		p:     p,
		start: time.Now(),
		result: &IngestResult{
			Document: domain.Document{ID: p.newID(), Filename: path.Base(strings.TrimSpace(up.Filename))},
		},
	}
	in.advance(domain.StateReceived)

	doc := &in.result.Document
	contentType, err := p.validate(up)
	if err != nil {
		return in.fail(err)
	}
	doc.ContentType = contentType
	doc.StorageKey = domain.StorageKeyFor(doc.ID, doc.Filename)
	doc.Size = int64(len(up.Data))

	records, pages, err := p.indexPages(ctx, in, up.Data)
	if err != nil {
		return in.fail(err)
	}
	doc.PageCount = pages
	doc.ChunkCount = len(records)

	// Compensation runs even if the caller's context is cancelled
	cleanup := context.WithoutCancel(ctx)

	if err := p.objects.Put(ctx, doc.StorageKey, up.Data, doc.ContentType); err != nil {
		p.rollbackIndex(cleanup, doc.ID, len(records))
		return in.fail(fmt.Errorf("store original: %w", err))
	}
	in.advance(domain.StateStored)

	doc.UploadedAt = p.now().UTC()
	if err := p.catalog.Save(ctx, *doc); err != nil {
		p.rollbackObject(cleanup, doc.StorageKey)
		p.rollbackIndex(cleanup, doc.ID, len(records))
		return in.fail(fmt.Errorf("record document: %w", err))
	}
	in.advance(domain.StateComplete)

	in.result.Duration = time.Since(in.start)
	p.logger.Info("Ingested document",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"pages", doc.PageCount,
		"chunks", doc.ChunkCount,
		"duration", in.result.Duration,
	)
	return in.result, nil
}

// indexPages runs the extract, chunk, embed and insert steps for one
// document and returns the inserted records and page count.
func (p *Pipeline) indexPages(ctx context.Context, in *ingestion, data []byte) ([]vectorindex.Record, int, error) {
	doc := &in.result.Document

	pages, err := p.extractor.Extract(ctx, doc.ContentType, data)
	if err != nil {
		return nil, 0, fmt.Errorf("extract: %w", err)
	}
	in.advance(domain.StateExtracted)

	if p.summarizer != nil && doc.Summary == "" {
		doc.Summary = p.summarize(ctx, doc.Filename, pages)
	}

	chunks := p.chunkPages(doc.ID, pages)
	in.advance(domain.StateChunked)
	if len(chunks) == 0 {
		p.logger.Warn("No text extracted", "document_id", doc.ID, "filename", doc.Filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed: %w", err)
	}
	in.advance(domain.StateEmbedded)

	records := make([]vectorindex.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorindex.Record{
			ID:     vectorindex.RecordID(doc.ID, c.Page, c.Index),
			Vector: vectors[i],
			Metadata: domain.ChunkMetadata{
				DocumentID: doc.ID,
				Filename:   doc.Filename,
				Page:       c.Page,
				ChunkIndex: c.Index,
				Start:      c.Start,
				End:        c.End,
				Snippet:    strings.TrimSpace(c.Text),
			},
		}
	}
	if len(records) > 0 {
		if err := p.index.Insert(ctx, records); err != nil {
			// A networked index may have accepted some batches
			p.rollbackIndex(context.WithoutCancel(ctx), doc.ID, len(records))
			return nil, 0, fmt.Errorf("index: %w", err)
		}
	}
	in.advance(domain.StateIndexed)

	return records, len(pages), nil
}

// validate checks the upload against the configured limits and returns its
// content type.
func (p *Pipeline) validate(up Upload) (string, error) {
	name := strings.TrimSpace(up.Filename)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: empty filename", domain.ErrValidation)
	}

	ext := strings.ToLower(path.Ext(name))
	if !slices.Contains(p.opts.Upload.AllowedExtensions, ext) {
		return "", fmt.Errorf("%w: %q is not an allowed file type (allowed: %s)",
			domain.ErrValidation, name, strings.Join(p.opts.Upload.AllowedExtensions, ", "))
	}
	contentType := domain.ContentTypeFor(name)
	if contentType == "" {
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, ext)
	}

	if len(up.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if limit := p.opts.Upload.MaxBytes; limit > 0 && int64(len(up.Data)) > limit {
		return "", fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrValidation, len(up.Data), limit)
	}
	if contentType == domain.ContentTypePDF && !bytes.HasPrefix(up.Data, []byte(extract.PDFMagic)) {
		return "", fmt.Errorf("%w: %q is not a PDF file", domain.ErrValidation, name)
	}
	return contentType, nil
}

// chunkPages splits every non-empty page. Whitespace-only windows and
// windows shorter than MinChunkChars are dropped.
func (p *Pipeline) chunkPages(documentID string, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for w := range p.chunker.Windows(page.Text) {
			trimmed := strings.TrimSpace(w.Text)
			if trimmed == "" {
				continue
			}
			if minChars := p.opts.Chunking.MinChunkChars; minChars > 0 && len([]rune(trimmed)) < minChars {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				DocumentID: documentID,
				Page:       page.Number,
				Index:      w.Index,
				Text:       w.Text,
				Start:      w.Start,
				End:        w.End,
			})
		}
	}
	return chunks
}

func (p *Pipeline) summarize(ctx context.Context, filename string, pages []domain.Page) string {
	var b strings.Builder
	for _, page := range pages {
		if b.Len() >= summaryInputChars {
			break
		}
		if t := strings.TrimSpace(page.Text); t != "" {
			b.WriteString(t)
			b.WriteString("\n\n")
		}
	}
	if b.Len() == 0 {
		return ""
	}

	summary, err := p.summarizer.Summarize(ctx, filename, b.String())
	if err != nil {
		p.logger.Warn("Summary generation failed, using empty", "filename", filename, "error", err)
		return ""
	}
	return summary
}

func (p *Pipeline) rollbackIndex(ctx context.Context, documentID string, records int) {
	if records == 0 {
		return
	}
	if err := p.index.Delete(ctx, vectorindex.Filter{DocumentID: documentID}); err != nil {
		p.logger.Error("Rollback of index records failed", "document_id", documentID, "error", err)
		return
	}
	p.logger.Warn("Rolled back index records", "document_id", documentID, "records", records)
}

func (p *Pipeline) rollbackObject(ctx context.Context, key string) {
	if err := p.objects.Delete(ctx, key); err != nil {
		p.logger.Error("Rollback of stored object failed", "key", key, "error", err)
		return
	}
	p.logger.Warn("Rolled back stored object", "key", key)
}
