package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bull/knowledge-pad/internal/domain"
)

// PDFMagic is the header every PDF file starts with.
const PDFMagic = "%PDF-"

// PDFExtractor extracts plain text per page with ledongthuc/pdf.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract parses data as a PDF. The parser panics on some malformed input;
// those panics are reported as extraction errors.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (pages []domain.Page, err error) {
	if !bytes.HasPrefix(data, []byte(PDFMagic)) {
		return nil, fmt.Errorf("%w: missing %s header", domain.ErrExtraction, PDFMagic)
	}

	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", domain.ErrExtraction, err)
	}

	n := reader.NumPage()
	pages = make([]domain.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, domain.Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrExtraction, i, err)
		}
		pages = append(pages, domain.Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
