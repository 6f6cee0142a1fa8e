// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, cross-compiles anywhere Go does. It registers itself with
// database/sql as the "sqlite" driver.
//
// Use ":memory:" for tests; every call to New gets its own empty database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sundayleague/league-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database at dbPath and brings the schema up
// to date.
//
// dbPath examples:
//   - "data/league.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would otherwise be a separate,
	// empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite. users.player_id references players.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	logger.Info("sqlite store ready", slog.String("path", dbPath))
	return db, nil
}

// Ping checks the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id                TEXT PRIMARY KEY,
			first_name        TEXT NOT NULL,
			last_name         TEXT NOT NULL,
			position          TEXT NOT NULL,
			jersey_number     INTEGER,
			email             TEXT,
			phone_number      TEXT,
			profile_image_url TEXT,
			is_captain        INTEGER NOT NULL DEFAULT 0,
			status            INTEGER NOT NULL DEFAULT 2,
			goals             INTEGER NOT NULL DEFAULT 0,
			assists           INTEGER NOT NULL DEFAULT 0,
			clean_sheets      INTEGER,
			appearances       INTEGER NOT NULL DEFAULT 0,
			yellow_cards      INTEGER NOT NULL DEFAULT 0,
			red_cards         INTEGER NOT NULL DEFAULT 0,
			joined_at         DATETIME,
			left_at           DATETIME,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_players_status ON players(status);
	`)
	if err != nil {
		return fmt.Errorf("creating players table: %w", err)
	}

	// player_id is nulled rather than blocking the delete when a linked
	// player is removed.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			player_id     TEXT REFERENCES players(id) ON DELETE SET NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
