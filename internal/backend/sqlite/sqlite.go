// Package sqlite stores encodings in a single SQLite database.
//
// Each identifier is one row of the documents table. Writes are upserts
// that bump a per-row revision counter, which callers can read back to see
// whether anyone else wrote the document since they last fetched it.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/twinsync/internal/backend"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on documents.updated_at
const currentSchemaVersion = 1

var (
	_ backend.Adapter = (*Store)(nil)
	_ backend.Deleter = (*Store)(nil)
	_ backend.Lister  = (*Store)(nil)
)

// Store is a SQLite-backed adapter.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements backend.Adapter.
func (s *Store) Get(ctx context.Context, identifier string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE identifier = ?", identifier,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", identifier, err)
	}
	return body, nil
}

// Put implements backend.Adapter.
func (s *Store) Put(ctx context.Context, identifier string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (identifier, body, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1,
			updated_at = excluded.updated_at
	`, identifier, data, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("put document %q: %w", identifier, err)
	}
	return nil
}

// Delete implements backend.Deleter.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE identifier = ?", identifier,
	); err != nil {
		return fmt.Errorf("delete document %q: %w", identifier, err)
	}
	return nil
}

// List implements backend.Lister.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT identifier FROM documents ORDER BY identifier COLLATE BINARY ASC")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return ids, nil
}

// Revision returns how many times identifier has been written, and when
// it was last written. It returns backend.ErrNotFound for an absent row.
func (s *Store) Revision(ctx context.Context, identifier string) (int64, time.Time, error) {
	var rev, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT revision, updated_at FROM documents WHERE identifier = ?", identifier,
	).Scan(&rev, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, backend.ErrNotFound
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("get revision %q: %w", identifier, err)
	}
	return rev, time.Unix(0, updated).UTC(), nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_updated_at
		ON documents(updated_at)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
