package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/model"
	"github.com/sundayleague/league-api/internal/repository"
)

const playerColumns = `id, first_name, last_name, position, jersey_number, email, phone_number,
	profile_image_url, is_captain, status, goals, assists, clean_sheets, appearances,
	yellow_cards, red_cards, joined_at, left_at, created_at, updated_at`

// CreatePlayer inserts a player and fills in ID and timestamps.
func (db *DB) CreatePlayer(ctx context.Context, p *model.Player) error {
	p.ID = xid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO players (`+playerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.FirstName,
		p.LastName,
		string(p.Position),
		nullInt(p.JerseyNumber),
		nullString(p.Email),
		nullString(p.PhoneNumber),
		nullString(p.ProfileImageURL),
		p.IsCaptain,
		int(p.Status),
		p.Goals,
		p.Assists,
		nullInt(p.CleanSheets),
		p.Appearances,
		p.YellowCards,
		p.RedCards,
		nullTime(p.JoinedAt),
		nullTime(p.LeftAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating player: %w", err)
	}
	return nil
}

// GetPlayerByID returns apperror.ErrNotFound when the row is absent,
// including after a reject or remove.
func (db *DB) GetPlayerByID(ctx context.Context, id string) (*model.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("player", id)
		}
		return nil, fmt.Errorf("sqlite: getting player %s: %w", id, err)
	}
	return p, nil
}

// ListPlayers returns players matching filter. The roster query is
// Status=Active with ByPerformance set.
func (db *DB) ListPlayers(ctx context.Context, filter repository.PlayerFilter) ([]model.Player, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, int(*filter.Status))
	}

	query := `SELECT ` + playerColumns + ` FROM players`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.ByPerformance {
		query += " ORDER BY goals DESC, assists DESC, last_name ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing players: %w", err)
	}
	defer rows.Close()

	players := make([]model.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating players: %w", err)
	}

	return players, nil
}

// UpdatePlayer writes every mutable column of p. The caller stamps
// UpdatedAt; a zero value is replaced with the current time.
// NotFound is detected through RowsAffected.
func (db *DB) UpdatePlayer(ctx context.Context, p *model.Player) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE players SET
			first_name = ?, last_name = ?, position = ?, jersey_number = ?,
			email = ?, phone_number = ?, profile_image_url = ?, is_captain = ?,
			status = ?, goals = ?, assists = ?, clean_sheets = ?, appearances = ?,
			yellow_cards = ?, red_cards = ?, joined_at = ?, left_at = ?, updated_at = ?
		 WHERE id = ?`,
		p.FirstName,
		p.LastName,
		string(p.Position),
		nullInt(p.JerseyNumber),
		nullString(p.Email),
		nullString(p.PhoneNumber),
		nullString(p.ProfileImageURL),
		p.IsCaptain,
		int(p.Status),
		p.Goals,
		p.Assists,
		nullInt(p.CleanSheets),
		p.Appearances,
		p.YellowCards,
		p.RedCards,
		nullTime(p.JoinedAt),
		nullTime(p.LeftAt),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating player %s: %w", p.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("player", p.ID)
	}
	return nil
}

// DeletePlayer hard-deletes the row. There is no soft delete.
func (db *DB) DeletePlayer(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting player %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("player", id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(s scanner) (*model.Player, error) {
	var (
		p                   model.Player
		position            string
		status              int
		jersey, cleanSheets sql.NullInt64
		email, phone, image sql.NullString
		joinedAt, leftAt    sql.NullTime
	)
	if err := s.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&position,
		&jersey,
		&email,
		&phone,
		&image,
		&p.IsCaptain,
		&status,
		&p.Goals,
		&p.Assists,
		&cleanSheets,
		&p.Appearances,
		&p.YellowCards,
		&p.RedCards,
		&joinedAt,
		&leftAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Position = model.Position(position)
	p.Status = model.PlayerStatus(status)
	p.JerseyNumber = intPtr(jersey)
	p.CleanSheets = intPtr(cleanSheets)
	p.Email = stringPtr(email)
	p.PhoneNumber = stringPtr(phone)
	p.ProfileImageURL = stringPtr(image)
	p.JoinedAt = timePtr(joinedAt)
	p.LeftAt = timePtr(leftAt)
	return &p, nil
}
