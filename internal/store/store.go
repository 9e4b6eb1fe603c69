// Package store persists the detection log to SQLite.
//
// The store is strictly optional: the default run keeps no state at all, and
// nothing in the experiment path depends on it. When enabled it records one
// session row per run and one row per detection, so long unattended runs can
// be analyzed afterwards.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for detection logs.
// Uses SQLite with WAL mode for concurrent read access during a run.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY from the detection writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records the start of a harness run.
func (s *Store) BeginSession(id uuid.UUID, startedAt time.Time, cpu0, cpu1 int) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, started_at, cpu0, cpu1) VALUES (?, ?, ?, ?)`,
		id.String(), startedAt.UTC().Format(time.RFC3339Nano), cpu0, cpu1,
	)
	if err != nil {
		return fmt.Errorf("begin session %s: %w", id, err)
	}
	return nil
}

// RecordDetection appends one violation to the session's log.
func (s *Store) RecordDetection(session uuid.UUID, detectionNo, trial uint64, observedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO detections (session_id, detection_no, trial, observed_at) VALUES (?, ?, ?, ?)`,
		session.String(), detectionNo, trial, observedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record detection %d (trial %d): %w", detectionNo, trial, err)
	}
	return nil
}

// DetectionCount reports how many detections a session has logged.
func (s *Store) DetectionCount(session uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM detections WHERE session_id = ?`, session.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count detections: %w", err)
	}
	return n, nil
}
