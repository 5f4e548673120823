package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/docstore/migrations"
	"github.com/bull/knowledge-pad/internal/sqlitedb"
)

// timeLayout is fixed width so uploaded_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a catalog stored in a SQLite file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the catalog database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlitedb.Open(path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %v", domain.ErrStorage, err)
	}
	return &SQLite{db: db}, nil
}

// Save stores or replaces a document.
func (s *SQLite) Save(ctx context.Context, doc domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, filename, storage_key, content_type, size, page_count, chunk_count, summary, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.StorageKey, doc.ContentType, doc.Size,
		doc.PageCount, doc.ChunkCount, doc.Summary, doc.UploadedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: save document %s: %v", domain.ErrStorage, doc.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, filename, storage_key, content_type, size, page_count, chunk_count, summary, uploaded_at
	FROM documents`

func (s *SQLite) Get(ctx context.Context, id string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: get document %s: %v", domain.ErrStorage, id, err)
	}
	return doc, nil
}

func (s *SQLite) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY uploaded_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", domain.ErrStorage, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrStorage, err)
	}
	return docs, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %v", domain.ErrStorage, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %v", domain.ErrStorage, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count documents: %v", domain.ErrStorage, err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (domain.Document, error) {
	var (
		doc        domain.Document
		uploadedAt string
	)
	err := row.Scan(&doc.ID, &doc.Filename, &doc.StorageKey, &doc.ContentType, &doc.Size,
		&doc.PageCount, &doc.ChunkCount, &doc.Summary, &uploadedAt)
	if err != nil {
		return domain.Document{}, err
	}
	doc.UploadedAt, err = time.Parse(timeLayout, uploadedAt)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	return doc, nil
}
