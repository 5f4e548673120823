package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/extract/pdftest"
	"github.com/bull/knowledge-pad/internal/pipeline"
	"github.com/bull/knowledge-pad/internal/pipeline/pipelinetest"
)

// downLibrary fails every health check.
type downLibrary struct {
	*pipeline.Pipeline
}

func (downLibrary) Health(context.Context) error { return errors.New("connection refused") }

func TestSearchDocuments(t *testing.T) {
	p, _ := pipelinetest.New(t)
	pipelinetest.Ingest(t, p, "biology.pdf", pdftest.Build(
		"The mitochondria is the powerhouse of the cell.",
		"Photosynthesis occurs in chloroplasts.",
	))

	handler := makeSearchHandler(p)
	_, out, err := handler(context.Background(), nil, SearchDocumentsInput{Query: "what produces energy in a cell"})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 2, out.TotalResults)
	assert.Equal(t, 1, out.Results[0].Page)
	assert.Equal(t, "biology.pdf", out.Results[0].Filename)
	assert.Empty(t, out.Message)

	_, out, err = handler(context.Background(), nil, SearchDocumentsInput{Query: "cell", TopK: pipeline.TopK(1)})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
}

func TestSearchDocuments_NoResults(t *testing.T) {
	p, _ := pipelinetest.New(t)

	_, out, err := makeSearchHandler(p)(context.Background(), nil, SearchDocumentsInput{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Message)
}

func TestSearchDocuments_EmptyQuery(t *testing.T) {
	p, _ := pipelinetest.New(t)

	_, _, err := makeSearchHandler(p)(context.Background(), nil, SearchDocumentsInput{Query: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListDocuments(t *testing.T) {
	p, _ := pipelinetest.New(t)
	pipelinetest.Ingest(t, p, "garden.md", []byte("# Basil\n\nAphids love basil."))

	_, out, err := makeListHandler(p)(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "garden.md", out.Documents[0].Filename)
	assert.Equal(t, domain.ContentTypeMarkdown, out.Documents[0].ContentType)
	assert.Equal(t, 1, out.Documents[0].Chunks)
}

func TestListDocuments_Empty(t *testing.T) {
	p, _ := pipelinetest.New(t)

	_, out, err := makeListHandler(p)(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Documents)
	assert.Equal(t, 0, out.Count)
}

func TestIndexStatus(t *testing.T) {
	p, _ := pipelinetest.New(t)

	_, out, err := makeStatusHandler(p)(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.True(t, out.Healthy)
	assert.Equal(t, 0, out.TotalDocs)
	assert.Empty(t, out.LastUpload)
	assert.Equal(t, "cosine", out.Metric)

	pipelinetest.Ingest(t, p, "garden.md", []byte("# Basil\n\nAphids love basil."))

	_, out, err = makeStatusHandler(p)(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalDocs)
	assert.Equal(t, 1, out.TotalChunks)
	assert.Equal(t, 384, out.Dimension)
	assert.NotEmpty(t, out.LastUpload)
}

func TestIndexStatus_Unhealthy(t *testing.T) {
	p, _ := pipelinetest.New(t)

	_, out, err := makeStatusHandler(downLibrary{p})(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.False(t, out.Healthy)
}

func TestNewServer(t *testing.T) {
	p, _ := pipelinetest.New(t)

	s := NewServer(p)
	require.NotNil(t, s.MCPServer())
	assert.NotNil(t, NewHTTPHandler(s, true))
}
