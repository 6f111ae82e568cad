// Package store provides SQLite-backed persistence for coverage baselines.
// Baselines are stored in .covgap/baselines.db so later runs can report the
// coverage delta against an earlier recorded report.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBFileName is the name of the baseline database file inside the
// .covgap directory.
const DBFileName = "baselines.db"

// Store manages the baselines SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the baseline database inside the given .covgap
// directory. It initializes the schema if the database is new.
func Open(configDir string) (*Store, error) {
	return OpenPath(filepath.Join(configDir, DBFileName))
}

// OpenPath opens or creates the baseline database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open baseline db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	st := &Store{db: db, dbPath: dbPath}

	if err := st.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}
