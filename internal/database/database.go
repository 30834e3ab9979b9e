package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT,
	due_date         TEXT NOT NULL,
	completed        INTEGER NOT NULL DEFAULT 0,
	completed_at     TEXT,
	tags             TEXT NOT NULL DEFAULT '[]',
	priority         TEXT,
	created_at       TEXT NOT NULL,
	task_list        TEXT,
	reminder_text    TEXT,
	recommended_time TEXT,
	reasoning        TEXT,
	confidence       REAL
);

CREATE TABLE IF NOT EXISTS schedule_preferences (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	wake_time  TEXT NOT NULL,
	bed_time   TEXT NOT NULL,
	work_start TEXT NOT NULL,
	work_end   TEXT NOT NULL
);
`

// DB wraps the SQLite connection. It is the single write path for all task
// state; callers must not open additional connections to the same file.
type DB struct {
	*sql.DB
}

// New opens (or creates) the SQLite database at dbPath and ensures the schema
// exists. The caller is responsible for calling Close.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// A single connection serializes all writes at the store boundary and
	// prevents SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{DB: db}, nil
}
