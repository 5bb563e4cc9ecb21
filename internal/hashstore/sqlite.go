// Package hashstore persists import fingerprints with per-key TTLs.
//
// It is bookkeeping for duplicate detection only — the ledger remains the
// system of record. Expiry acts as a bounded-retention dedup window, not
// permanent history.
package hashstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/extracto/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements service.HashStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the hash database at dbPath
// and brings its schema up to date.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the record stored under key, or nil when the key is absent
// or its TTL has elapsed.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*service.HashRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, bank, date, amount, description, imported_at
		FROM import_hashes
		WHERE key = ? AND expires_at > ?
	`, key, time.Now().UTC())

	var rec service.HashRecord
	err := row.Scan(&rec.ChatID, &rec.Bank, &rec.Date, &rec.Amount, &rec.Description, &rec.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hash %s: %w", key, err)
	}
	return &rec, nil
}

// Put stores record under key with the given TTL, replacing any previous
// entry. Fingerprint records are content-addressed, so a replace can only
// ever rewrite identical fields plus a fresher expiry.
func (s *SQLiteStore) Put(ctx context.Context, key string, record service.HashRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	now := time.Now().UTC()
	importedAt := record.ImportedAt
	if importedAt.IsZero() {
		importedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO import_hashes (
			key, chat_id, bank, date, amount, description, imported_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, key, record.ChatID, record.Bank, record.Date, record.Amount, record.Description,
		importedAt, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to put hash %s: %w", key, err)
	}
	return nil
}

// Stats reports how many entries the store holds and how many of them have
// already expired but not yet been purged.
func (s *SQLiteStore) Stats(ctx context.Context) (total, expired int64, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(expires_at <= ?), 0) FROM import_hashes
	`, time.Now().UTC())
	if err := row.Scan(&total, &expired); err != nil {
		return 0, 0, fmt.Errorf("failed to read hash stats: %w", err)
	}
	return total, expired, nil
}

// PurgeExpired deletes entries whose TTL has elapsed and returns how many
// were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM import_hashes WHERE expires_at <= ?
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired hashes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged hashes: %w", err)
	}
	return n, nil
}
