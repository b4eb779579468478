//go:build !(js && wasm)

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	key   TEXT NOT NULL UNIQUE,
	value TEXT NOT NULL
);`

// SQLiteNamespace is a durable Namespace stored in a single SQLite file.
// Keys enumerate in first-insertion order.
type SQLiteNamespace struct {
	mu     sync.Mutex
	db     *sql.DB
	quota  int64
	closed bool
}

// OpenSQLiteNamespace opens (creating if needed) the namespace at path.
func OpenSQLiteNamespace(path string, quota int64) (*SQLiteNamespace, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create namespace dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	// Namespace access is synchronous; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &SQLiteNamespace{db: db, quota: quota}, nil
}

// GetItem returns the value stored at key.
func (s *SQLiteNamespace) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem upserts value at key. The quota check and the write share one
// transaction, so a rejected write leaves nothing behind.
func (s *SQLiteNamespace) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.quota > 0 {
		var others int64
		err := tx.QueryRow(`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0)
			FROM items WHERE key <> ?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("sqlite: measure usage: %w", err)
		}
		need := entrySize(key, value)
		if others+need > s.quota {
			return quotaError(need, s.quota)
		}
	}

	_, err = tx.Exec(`INSERT INTO items (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite: set %q: %w", key, err)
	}
	return tx.Commit()
}

// RemoveItem deletes key if present.
func (s *SQLiteNamespace) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.Exec("DELETE FROM items WHERE key = ?", key); err != nil {
		return fmt.Errorf("sqlite: remove %q: %w", key, err)
	}
	return nil
}

// Clear removes every entry.
func (s *SQLiteNamespace) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("sqlite: clear: %w", err)
	}
	return nil
}

// Length returns the number of entries.
func (s *SQLiteNamespace) Length() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// Key returns the index-th key.
func (s *SQLiteNamespace) Key(index int) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	if index < 0 {
		return "", false, nil
	}

	var key string
	err := s.db.QueryRow("SELECT key FROM items ORDER BY seq LIMIT 1 OFFSET ?", index).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: key %d: %w", index, err)
	}
	return key, true, nil
}

// Entries returns every entry in one query.
func (s *SQLiteNamespace) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query("SELECT key, value FROM items ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("sqlite: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteNamespace) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
