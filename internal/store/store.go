// Package store archives completed pipeline runs in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by LoadRun for an unknown id.
var ErrNotFound = errors.New("run not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex // Protects all database operations
	now func() time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
// Child rows keep their position so a loaded run renders in the original order.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		niche TEXT NOT NULL,
		platform TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		num_posts INTEGER NOT NULL,
		use_mock INTEGER NOT NULL DEFAULT 0,
		message TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analyses (
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		author TEXT,
		text TEXT,
		url TEXT,
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		shares INTEGER DEFAULT 0,
		overall_sentiment INTEGER DEFAULT 0,
		tool_usefulness INTEGER DEFAULT 0,
		common_questions TEXT NOT NULL DEFAULT '[]',
		key_insights TEXT,
		source TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS generated_posts (
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		hook TEXT NOT NULL,
		body TEXT NOT NULL,
		cta TEXT NOT NULL,
		hashtags TEXT NOT NULL DEFAULT '[]',
		tone TEXT NOT NULL,
		viral_score INTEGER DEFAULT 0,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
