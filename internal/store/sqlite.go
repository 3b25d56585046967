package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// SQLite is a prefs.ValueStore backed by a SQLite file. Several domains can
// share one file; each SQLite value only sees its own rows.
type SQLite struct {
	sqlDB  *sql.DB
	domain string
}

var _ prefs.ValueStore = (*SQLite)(nil)

const schema = `CREATE TABLE IF NOT EXISTS prefs (
	domain TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  BLOB NOT NULL,
	PRIMARY KEY (domain, key)
)`

// OpenSQLite opens or creates the SQLite file at path and uses domain for all
// keys. An empty domain means DefaultDomain.
func OpenSQLite(path, domain string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if domain == "" {
		domain = DefaultDomain
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, domain: domain}, nil
}

// Close closes the SQLite handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Get(key string) (prefs.Value, bool, error) {
	var raw []byte
	err := s.sqlDB.QueryRow(`SELECT value FROM prefs WHERE domain = ? AND key = ?`, s.domain, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs.Value{}, false, nil
	}
	if err != nil {
		return prefs.Value{}, false, fmt.Errorf("get %q: %w", key, err)
	}
	v, err := prefs.UnmarshalValue(raw)
	if err != nil {
		return prefs.Value{}, false, err
	}
	return v, true, nil
}

func (s *SQLite) Set(key string, v prefs.Value) error {
	if key == "" {
		return prefs.ErrEmptyKey
	}
	raw, err := prefs.MarshalValue(v)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.Exec(
		`INSERT INTO prefs (domain, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(domain, key) DO UPDATE SET value = excluded.value`,
		s.domain, key, raw,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	if _, err := s.sqlDB.Exec(`DELETE FROM prefs WHERE domain = ? AND key = ?`, s.domain, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// RemoveAll deletes every row of this domain. Other domains in the same file
// are untouched.
func (s *SQLite) RemoveAll() error {
	if _, err := s.sqlDB.Exec(`DELETE FROM prefs WHERE domain = ?`, s.domain); err != nil {
		return fmt.Errorf("remove all: %w", err)
	}
	return nil
}

func (s *SQLite) ContainsKey(key string) (bool, error) {
	var n int
	err := s.sqlDB.QueryRow(`SELECT COUNT(1) FROM prefs WHERE domain = ? AND key = ?`, s.domain, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("contains %q: %w", key, err)
	}
	return n > 0, nil
}

// Flush checkpoints the write-ahead log into the main database file.
func (s *SQLite) Flush() error {
	if _, err := s.sqlDB.Exec(`PRAGMA wal_checkpoint(FULL)`); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
