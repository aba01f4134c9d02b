package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database. The schema
// mirrors the two-table shape the catalog has always had: codes holds
// the content, metadata holds the searchable attributes.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

const schema = `
	CREATE TABLE IF NOT EXISTS codes (
		cid        TEXT PRIMARY KEY,
		vid        TEXT NOT NULL,
		signature  TEXT NOT NULL,
		docstring  TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_codes_vid ON codes(vid);

	CREATE TABLE IF NOT EXISTS metadata (
		cid       TEXT PRIMARY KEY REFERENCES codes(cid),
		code_name TEXT NOT NULL,
		code_kind TEXT NOT NULL,
		is_test   INTEGER NOT NULL DEFAULT 0,
		file_path TEXT NOT NULL,
		tags      TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_metadata_name ON metadata(code_name);
	CREATE INDEX IF NOT EXISTS idx_metadata_kind ON metadata(code_kind);
`

// OpenSQLite opens or creates the catalog database at path, creating
// parent directories as needed. A database that cannot be opened or
// pinged is reported as ErrUnreachable.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create catalog directory: %v", ErrUnreachable, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreachable, path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: set pragma: %v", ErrUnreachable, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrUnreachable, err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

func (s *SQLiteStore) Lookup(ctx context.Context, cid string) (*Entry, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT cid, vid, signature, docstring, body, created_at, updated_at
		FROM codes WHERE cid = ?`, cid)

	var entry Entry
	var createdAt, updatedAt string
	err := row.Scan(&entry.CID, &entry.VID, &entry.Signature, &entry.Docstring,
		&entry.Body, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", cid, err)
	}

	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	entry.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &entry, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, entry Entry, meta Meta) error {
	tags, err := json.Marshal(meta.Tags)
	if err != nil {
		return fmt.Errorf("encode tags for %s: %w", entry.CID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert %s: %w", entry.CID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO codes (cid, vid, signature, docstring, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CID, entry.VID, entry.Signature, entry.Docstring, entry.Body, now, now)
	if err != nil {
		return fmt.Errorf("insert %s: %w", entry.CID, err)
	}

	isTest := 0
	if meta.IsTest {
		isTest = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO metadata (cid, code_name, code_kind, is_test, file_path, tags)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.CID, meta.Name, meta.Kind, isTest, meta.FilePath, string(tags))
	if err != nil {
		return fmt.Errorf("insert metadata %s: %w", entry.CID, err)
	}

	return tx.Commit()
}

// UpdateVersion refreshes the version identifier and body of an existing
// entry. The CID is the identity and is never rewritten.
func (s *SQLiteStore) UpdateVersion(ctx context.Context, cid, vid, body string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.conn.ExecContext(ctx, `
		UPDATE codes SET vid = ?, body = ?, updated_at = ? WHERE cid = ?`,
		vid, body, now, cid)
	if err != nil {
		return fmt.Errorf("update version %s: %w", cid, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update version %s: no such entry", cid)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM codes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT code_kind, COUNT(*) FROM metadata GROUP BY code_kind ORDER BY code_kind`)
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("count by kind: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
