package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/qrpulse/qrpulse/internal/core/storage"
	_ "modernc.org/sqlite" // Register sqlite driver
)

// DefaultName is the row the snapshot is stored under.
const DefaultName = "clicks_data"

var _ storage.BlobStore = (*BlobStore)(nil)

// BlobStore keeps the snapshot as one row of a SQLite table.
type BlobStore struct {
	db   *sql.DB
	name string
}

// Open opens (or creates) a SQLite database at dsn and initialises the table.
// Use ":memory:" for a throwaway database.
func Open(dsn, name string) (*BlobStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			name       TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	if name == "" {
		name = DefaultName
	}
	return &BlobStore{db: db, name: name}, nil
}

func (b *BlobStore) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE name = ?`, b.name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", b.name, err)
	}
	return body, nil
}

func (b *BlobStore) Write(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, b.name, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", b.name, err)
	}
	return nil
}

func (b *BlobStore) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the underlying SQLite database connection.
func (b *BlobStore) Close() error {
	return b.db.Close()
}
