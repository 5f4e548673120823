package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

func TestMemory_PutGetDeleteList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "documents/b.pdf", []byte("%PDF-b"), domain.ContentTypePDF))
	require.NoError(t, m.Put(ctx, "documents/a.pdf", []byte("%PDF-a"), domain.ContentTypePDF))
	require.NoError(t, m.Put(ctx, "other/c.md", []byte("# c"), domain.ContentTypeMarkdown))

	data, err := m.Get(ctx, "documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-a"), data)

	objects, err := m.List(ctx, "documents/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "documents/a.pdf", objects[0].Key)
	assert.Equal(t, int64(6), objects[0].Size)
	assert.Equal(t, domain.ContentTypePDF, objects[0].ContentType)

	require.NoError(t, m.Delete(ctx, "documents/a.pdf"))
	_, err = m.Get(ctx, "documents/a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is fine
	assert.NoError(t, m.Delete(ctx, "documents/a.pdf"))
}

func TestMemory_CopiesData(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, m.Put(ctx, "k", buf, "text/plain"))
	buf[0] = 'X'

	data, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
