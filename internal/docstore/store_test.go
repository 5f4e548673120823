package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/config"
	"github.com/bull/knowledge-pad/internal/domain"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func document(id, filename string, uploaded time.Time) domain.Document {
	return domain.Document{
		ID:          id,
		Filename:    filename,
		StorageKey:  domain.StorageKeyFor(id, filename),
		ContentType: domain.ContentTypeFor(filename),
		Size:        1234,
		PageCount:   2,
		ChunkCount:  3,
		Summary:     "A short summary.",
		UploadedAt:  uploaded,
	}
}

func TestStore_SaveGet(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := document("doc-1", "biology.pdf", now)
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Get(ctx, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Filename, got.Filename)
			assert.Equal(t, want.StorageKey, got.StorageKey)
			assert.Equal(t, want.ContentType, got.ContentType)
			assert.Equal(t, want.Size, got.Size)
			assert.Equal(t, want.PageCount, got.PageCount)
			assert.Equal(t, want.ChunkCount, got.ChunkCount)
			assert.Equal(t, want.Summary, got.Summary)
			assert.True(t, want.UploadedAt.Equal(got.UploadedAt))

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, document("old", "old.pdf", base)))
			require.NoError(t, s.Save(ctx, document("new", "new.pdf", base.Add(2*time.Hour))))
			require.NoError(t, s.Save(ctx, document("mid", "mid.md", base.Add(time.Hour))))

			docs, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, docs, 3)
			assert.Equal(t, "new", docs[0].ID)
			assert.Equal(t, "mid", docs[1].ID)
			assert.Equal(t, "old", docs[2].ID)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, document("doc-1", "a.pdf", time.Now())))

			require.NoError(t, s.Delete(ctx, "doc-1"))
			assert.ErrorIs(t, s.Delete(ctx, "doc-1"), domain.ErrNotFound)

			docs, err := s.List(ctx)
			require.NoError(t, err)
			assert.NotNil(t, docs)
			assert.Empty(t, docs)
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.CatalogConfig{Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.CatalogConfig{Path: filepath.Join(t.TempDir(), "lib.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLite{}, s)
}
