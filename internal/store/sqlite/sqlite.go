// Package sqlite implements the persistence contracts of the pipeline on an
// embedded SQLite database (modernc.org/sqlite, no cgo).
//
// Every method is a short, independent statement or single-row transaction;
// nothing holds a transaction across a sync cycle.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the store interfaces
// consumed by the usecase package.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// A single connection keeps PRAGMAs in effect and serializes writers;
	// the scheduler and the status server are the only clients.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate(ctx context.Context) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				chat_id         TEXT PRIMARY KEY,
				github_username TEXT NOT NULL UNIQUE COLLATE NOCASE,
				score           INTEGER NOT NULL DEFAULT 0,
				last_synced_at  DATETIME NOT NULL
			)`},
		{"repos", `
			CREATE TABLE IF NOT EXISTS repos (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_url        TEXT NOT NULL,
				owner           TEXT NOT NULL,
				name            TEXT NOT NULL,
				channel_id      TEXT NOT NULL,
				last_event_etag TEXT,
				UNIQUE(repo_url, channel_id)
			)`},
		// Maintainers may be registered before they link an identity, so
		// there is no foreign key to users.
		{"maintainers", `
			CREATE TABLE IF NOT EXISTS maintainers (
				chat_id  TEXT NOT NULL,
				repo_url TEXT NOT NULL,
				UNIQUE(chat_id, repo_url)
			);
			CREATE INDEX IF NOT EXISTS idx_maintainers_repo_url ON maintainers(repo_url)`},
		{"processed_events", `
			CREATE TABLE IF NOT EXISTS processed_events (
				event_id TEXT PRIMARY KEY
			)`},
		{"activity_log", `
			CREATE TABLE IF NOT EXISTS activity_log (
				id            TEXT PRIMARY KEY,
				activity_type TEXT NOT NULL,
				chat_id       TEXT NOT NULL,
				timestamp     DATETIME NOT NULL
			)`},
	}
	for _, s := range stmts {
		if _, err := db.conn.ExecContext(ctx, s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// affected reports whether the statement changed at least one row.
func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
