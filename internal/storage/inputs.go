// Package storage persists the last inputs of each calculator in sqlite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBFileName is used when no path is configured
const DefaultDBFileName = "cryptowise.db"

var (
	// ErrNotFound is returned when nothing is saved under a key
	ErrNotFound = errors.New("saved input not found")
	// ErrUnknownKey is returned for a calculator name without a storage key
	ErrUnknownKey = errors.New("unknown calculator")
)

// calculator name -> versioned storage key
var storageKeys = map[string]string{
	"pnl":          "cryptowise_pnl_v1",
	"risk":         "cryptowise_risk_v1",
	"dca":          "cryptowise_dca_v1",
	"moon_math":    "cryptowise_moonmath_v1",
	"future_value": "cryptowise_future_value_v1",
	"decision":     "cryptowise_decision_v1",
}

// StorageKey maps a calculator name to its versioned key. Dashes are
// accepted in place of underscores.
func StorageKey(calculator string) (string, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(calculator)), "-", "_")
	key, ok := storageKeys[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, calculator)
	}
	return key, nil
}

// Calculators lists the names StorageKey accepts, sorted
func Calculators() []string {
	names := make([]string, 0, len(storageKeys))
	for name := range storageKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record is one saved payload
type Record struct {
	Key       string
	Data      []byte
	UpdatedAt time.Time
}

// Store is a key/value table of JSON payloads
type Store struct {
	db *sql.DB
}

// ResolvePath turns a directory into a path to the default db file
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultDBFileName
	}
	if filepath.Ext(p) == "" {
		return filepath.Join(p, DefaultDBFileName)
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, DefaultDBFileName)
	}
	return p
}

// Open opens or creates the database at path and ensures the schema
func Open(path string) (*Store, error) {
	path = ResolvePath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", filepath.ToSlash(path)))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the saved_inputs table if missing
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_inputs (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts data under key
func (s *Store) Save(ctx context.Context, key string, data []byte, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO saved_inputs (key, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
`, key, string(data), updatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load returns the record under key or ErrNotFound
func (s *Store) Load(ctx context.Context, key string) (Record, error) {
	var (
		data      string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT data, updated_at FROM saved_inputs WHERE key = ?`, key).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", key, err)
	}
	return Record{Key: key, Data: []byte(data), UpdatedAt: time.UnixMilli(updatedAt).UTC()}, nil
}

// Delete removes key; deleting a missing key returns ErrNotFound
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_inputs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every saved input and reports how many were removed
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_inputs`)
	if err != nil {
		return 0, fmt.Errorf("clear saved inputs: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
