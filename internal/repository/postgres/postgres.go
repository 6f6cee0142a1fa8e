// Package postgres implements the repository interfaces on a pgx
// connection pool. It is selected when DATABASE_URL is a postgres:// DSN.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayleague/league-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB wraps a pgx pool and implements repository.Store.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// PoolConfig tunes the pgx pool. Zero values keep pgx defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
}

// New connects to dsn, pings, and creates the schema.
func New(ctx context.Context, dsn string, cfg PoolConfig, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool, logger: logger}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	logger.Info("postgres store ready",
		slog.String("host", poolCfg.ConnConfig.Host),
		slog.String("database", poolCfg.ConnConfig.Database),
	)
	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases pool resources.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// migrate creates the schema one statement at a time; the extended
// protocol rejects multi-statement strings.
func (db *DB) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id                TEXT PRIMARY KEY,
			first_name        TEXT NOT NULL,
			last_name         TEXT NOT NULL,
			position          TEXT NOT NULL,
			jersey_number     INTEGER,
			email             TEXT,
			phone_number      TEXT,
			profile_image_url TEXT,
			is_captain        BOOLEAN NOT NULL DEFAULT FALSE,
			status            SMALLINT NOT NULL DEFAULT 2,
			goals             INTEGER NOT NULL DEFAULT 0,
			assists           INTEGER NOT NULL DEFAULT 0,
			clean_sheets      INTEGER,
			appearances       INTEGER NOT NULL DEFAULT 0,
			yellow_cards      INTEGER NOT NULL DEFAULT 0,
			red_cards         INTEGER NOT NULL DEFAULT 0,
			joined_at         TIMESTAMPTZ,
			left_at           TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_status ON players(status)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
			player_id     TEXT REFERENCES players(id) ON DELETE SET NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
