package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/model"
)

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO users (id, email, password_hash, is_admin, player_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.PlayerID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email", "Email already registered")
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const query = `
		SELECT id, email, password_hash, is_admin, player_id, created_at
		FROM users WHERE id = $1`

	u, err := scanUser(db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `
		SELECT id, email, password_hash, is_admin, player_id, created_at
		FROM users WHERE email = $1`

	u, err := scanUser(db.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return u, nil
}

// pgx scans NULL straight into pointer fields, so no Null* shims here.
func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.PlayerID,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
