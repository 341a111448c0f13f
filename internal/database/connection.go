package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore implements Store on top of sqlx with either the sqlite3 or the
// postgres driver. Records live one row per (student, course) pair with
// the per-outcome maps as JSON text columns; timestamps are RFC 3339 UTC.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// OpenSQL connects to the database, applies driver-specific settings and
// ensures the schema exists. driver is "sqlite3" or "postgres".
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection, for callers that manage their
// own pool. The schema is still ensured.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// initSchema creates the tables if they don't exist
func (s *SQLStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mastery_records (
			student_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			ema_by_outcome TEXT NOT NULL DEFAULT '{}',
			observations_by_outcome TEXT NOT NULL DEFAULT '{}',
			updated_at TEXT NOT NULL,
			PRIMARY KEY (student_id, course_id)
		)`,
		`CREATE TABLE IF NOT EXISTS routine_records (
			student_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			last_taught_at TEXT,
			due_at_by_outcome TEXT NOT NULL DEFAULT '{}',
			spacing_policy_version INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (student_id, course_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			course_id TEXT NOT NULL,
			outcome_id TEXT NOT NULL,
			title TEXT NOT NULL,
			strand TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (course_id, outcome_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
