// Package extract turns uploaded file bytes into ordered page text.
package extract

import (
	"context"
	"fmt"

	"github.com/bull/knowledge-pad/internal/domain"
)

// Extractor produces pages from raw file bytes. Pages are numbered from 1 and
// returned in order; a page with no extractable text has empty Text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]domain.Page, error)
}

// Registry selects an Extractor by content type.
type Registry struct {
	byType map[string]Extractor
}

// NewRegistry returns a registry with the PDF and Markdown extractors.
func NewRegistry() *Registry {
	return &Registry{byType: map[string]Extractor{
		domain.ContentTypePDF:      NewPDFExtractor(),
		domain.ContentTypeMarkdown: NewMarkdownExtractor(),
	}}
}

// Register sets the extractor for a content type, replacing any existing one.
func (r *Registry) Register(contentType string, e Extractor) {
	r.byType[contentType] = e
}

// Extract dispatches to the extractor registered for contentType.
func (r *Registry) Extract(ctx context.Context, contentType string, data []byte) ([]domain.Page, error) {
	e, ok := r.byType[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrValidation, contentType)
	}
	return e.Extract(ctx, data)
}
