// Package history persists accepted suggestions to SQLite for the host's
// benefit. The completion core itself keeps no durable state; this store is
// a host-side feature and is only opened when a path is configured.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Acceptance is one accepted suggestion.
type Acceptance struct {
	ID        int64
	Text      string
	Anchor    int
	CreatedAt time.Time
}

// Store is a SQLite-backed acceptance log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS acceptances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			anchor INTEGER NOT NULL,
			created_at_unix_ms INTEGER NOT NULL
		)
	`)
	return err
}

// Record appends an accepted suggestion.
func (s *Store) Record(ctx context.Context, text string, anchor int) error {
	if text == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acceptances (text, anchor, created_at_unix_ms) VALUES (?, ?, ?)
	`, text, anchor, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record acceptance: %w", err)
	}
	return nil
}

// Recent returns up to limit acceptances, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Acceptance, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, anchor, created_at_unix_ms
		FROM acceptances ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query acceptances: %w", err)
	}
	defer rows.Close()

	var out []Acceptance
	for rows.Next() {
		var a Acceptance
		var ms int64
		if err := rows.Scan(&a.ID, &a.Text, &a.Anchor, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan acceptance: %w", err)
		}
		a.CreatedAt = time.UnixMilli(ms)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
