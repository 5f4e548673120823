package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/extract/pdftest"
)

func TestPDFExtractor_Pages(t *testing.T) {
	data := pdftest.Build(
		"The mitochondria is the powerhouse of the cell.",
		"",
		"Photosynthesis occurs in chloroplasts.",
	)

	pages, err := NewPDFExtractor().Extract(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "mitochondria")
	assert.Equal(t, 2, pages[1].Number)
	assert.Empty(t, pages[1].Text)
	assert.Equal(t, 3, pages[2].Number)
	assert.Contains(t, pages[2].Text, "chloroplasts")
}

func TestPDFExtractor_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a pdf", []byte("hello world")},
		{"empty", nil},
		{"truncated", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")},
		{"garbage after header", append([]byte("%PDF-1.7\n"), make([]byte, 512)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPDFExtractor().Extract(context.Background(), tt.data)
			assert.ErrorIs(t, err, domain.ErrExtraction)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	pages, err := r.Extract(ctx, domain.ContentTypeMarkdown, []byte("just some notes"))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "just some notes", pages[0].Text)

	_, err = r.Extract(ctx, "image/png", []byte{0x89})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
