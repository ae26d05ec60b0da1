// Package store provides the durable key-value preference store backed by
// SQLite.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "radiobox"
	dbFileName = "radiobox.db"
)

// Store is a SQLite-backed string key-value store.
type Store struct {
	db *sql.DB
}

// Open opens the store at path. An empty path places the database file in
// the XDG data directory.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := xdg.DataFile(filepath.Join(appName, dbFileName))
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve data file path")
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init schema")
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Get returns the value for key. The bool result reports whether the key
// exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to read preference")
	}
	return value, true, nil
}

// Set writes the value for key, replacing any existing value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return errors.Wrap(err, "failed to write preference")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
