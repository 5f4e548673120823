package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/sqlitedb"
	"github.com/bull/knowledge-pad/internal/vectorindex/migrations"
)

// SQLite is an Index stored in a single embedded database file. Vectors are
// little-endian float32 BLOBs; search scans the candidate rows and ranks them
// in process, in insertion (seq) order for ties.
type SQLite struct {
	db        *sql.DB
	path      string
	dimension int
	metric    Metric
}

// OpenSQLite opens the index file at path. A new file records dimension and
// metric. An existing file built with a different dimension or metric fails
// with ErrDimensionMismatch unless rebuild is set, in which case it is
// emptied and re-stamped.
func OpenSQLite(ctx context.Context, path string, dimension int, metric Metric, rebuild bool) (*SQLite, error) {
	db, err := sqlitedb.Open(path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	s := &SQLite{db: db, path: path, dimension: dimension, metric: metric}
	if err := s.checkMeta(ctx, rebuild); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) checkMeta(ctx context.Context, rebuild bool) error {
	stored, err := s.readMeta(ctx)
	if err != nil {
		return err
	}

	if len(stored) == 0 {
		return s.writeMeta(ctx)
	}

	dim, _ := strconv.Atoi(stored["dimension"])
	metric := Metric(stored["metric"])
	if dim == s.dimension && metric == s.metric {
		return nil
	}
	if !rebuild {
		return fmt.Errorf("%w: index %s was built with %d dimensions (%s), configured %d (%s); run `kpad reindex`",
			domain.ErrDimensionMismatch, s.path, dim, metric, s.dimension, s.metric)
	}
	return s.Reset(ctx)
}

func (s *SQLite) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return nil, fmt.Errorf("%w: read index meta: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("%w: scan index meta: %v", domain.ErrStorage, err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *SQLite) writeMeta(ctx context.Context) error {
	const q = "INSERT OR REPLACE INTO index_meta (key, value) VALUES (?, ?)"
	for k, v := range map[string]string{
		"dimension": strconv.Itoa(s.dimension),
		"metric":    string(s.metric),
	} {
		if _, err := s.db.ExecContext(ctx, q, k, v); err != nil {
			return fmt.Errorf("%w: write index meta: %v", domain.ErrStorage, err)
		}
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, records []Record) error {
	if err := checkRecords(s.dimension, records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin insert: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	// Delete first so a replaced record moves to the end of the tie order,
	// matching the in-memory index.
	del, err := tx.PrepareContext(ctx, "DELETE FROM embeddings WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%w: prepare delete: %v", domain.ErrStorage, err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, document_id, filename, page, chunk_index, start_offset, end_offset, snippet, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", domain.ErrStorage, err)
	}
	defer ins.Close()

	for _, r := range records {
		m := r.Metadata
		if _, err := del.ExecContext(ctx, r.ID); err != nil {
			return fmt.Errorf("%w: replace %s: %v", domain.ErrStorage, r.ID, err)
		}
		if _, err := ins.ExecContext(ctx, r.ID, m.DocumentID, m.Filename, m.Page, m.ChunkIndex,
			m.Start, m.End, m.Snippet, float32SliceToBytes(r.Vector)); err != nil {
			return fmt.Errorf("%w: insert %s: %v", domain.ErrStorage, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit insert: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, filter Filter) error {
	if err := requireFilter(filter); err != nil {
		return err
	}

	where, args := filterClause(filter)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM embeddings"+where, args...); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *SQLite) Search(ctx context.Context, query []float32, topK int, filter Filter) ([]Hit, error) {
	if err := checkDimension(s.dimension, query, "query"); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, filename, page, chunk_index, start_offset, end_offset, snippet, vector
		FROM embeddings`+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			blob []byte
		)
		m := &h.Metadata
		if err := rows.Scan(&h.ID, &m.DocumentID, &m.Filename, &m.Page, &m.ChunkIndex,
			&m.Start, &m.End, &m.Snippet, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrStorage, err)
		}

		vec := bytesToFloat32Slice(blob)
		if len(vec) != s.dimension {
			return nil, fmt.Errorf("%w: stored record %s has %d dimensions", domain.ErrDimensionMismatch, h.ID, len(vec))
		}
		h.Score = Similarity(s.metric, query, vec)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrStorage, err)
	}

	if hits == nil {
		return []Hit{}, nil
	}
	return rank(hits, topK), nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStorage, err)
	}
	return n, nil
}

func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
		return fmt.Errorf("%w: reset: %v", domain.ErrStorage, err)
	}
	return s.writeMeta(ctx)
}

func (s *SQLite) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *SQLite) Dimension() int { return s.dimension }
func (s *SQLite) Metric() Metric { return s.metric }

// Path returns the index file path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}

func filterClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.DocumentID != "" {
		conds = append(conds, "document_id = ?")
		args = append(args, f.DocumentID)
	}
	if f.Filename != "" {
		conds = append(conds, "filename = ?")
		args = append(args, f.Filename)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
