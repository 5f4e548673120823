package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/domain"
)

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.p.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
	assert.Zero(t, stats.Chunks)

	_, err = f.p.Ingest(ctx, Upload{Filename: "biology.pdf", Data: biologyPDF})
	require.NoError(t, err)

	stats, err = f.p.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		Documents: 1,
		Chunks:    2,
		Model:     "feature-hash-v1",
		Dimension: 384,
		Metric:    "cosine",
	}, stats)
}

func TestListAndOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.p.Ingest(ctx, Upload{Filename: "biology.pdf", Data: biologyPDF})
	require.NoError(t, err)
	second, err := f.p.Ingest(ctx, Upload{Filename: "notes.md", Data: []byte("Plain notes about cells.")})
	require.NoError(t, err)

	docs, err := f.p.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.Document.ID, docs[0].ID)
	assert.Equal(t, first.Document.ID, docs[1].ID)

	doc, data, err := f.p.Open(ctx, second.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", doc.Filename)
	assert.Equal(t, "Plain notes about cells.", string(data))

	_, _, err = f.p.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The memory store cannot presign
	u, err := f.p.PresignedURL(ctx, first.Document.ID)
	require.NoError(t, err)
	assert.Empty(t, u)
}

func TestDelete_Unknown(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.p.Delete(context.Background(), "missing"), domain.ErrNotFound)
}

func TestReindex_KeepsIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.p.Ingest(ctx, Upload{Filename: "biology.pdf", Data: biologyPDF})
	require.NoError(t, err)
	lost, err := f.p.Ingest(ctx, Upload{Filename: "lost.md", Data: []byte("This original goes missing.")})
	require.NoError(t, err)
	require.NoError(t, f.objects.Delete(ctx, lost.Document.StorageKey))

	out, err := f.p.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalDocs)
	assert.Equal(t, 1, out.SuccessfulDocs)
	assert.Equal(t, 2, out.TotalChunks)
	require.Len(t, out.FailedDocs, 1)
	assert.Equal(t, lost.Document.ID, out.FailedDocs[0].ID)

	assert.Equal(t, 2, f.count(t))
	resp, err := f.p.Search(ctx, SearchRequest{Query: "mitochondria"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, res.Document.ID, resp.Results[0].DocumentID)
}
