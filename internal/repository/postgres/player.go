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
	"github.com/sundayleague/league-api/internal/repository"
)

const playerColumns = `id, first_name, last_name, position, jersey_number, email, phone_number,
	profile_image_url, is_captain, status, goals, assists, clean_sheets, appearances,
	yellow_cards, red_cards, joined_at, left_at, created_at, updated_at`

func (db *DB) CreatePlayer(ctx context.Context, p *model.Player) error {
	p.ID = xid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt

	query := `INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := db.pool.Exec(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		string(p.Position),
		p.JerseyNumber,
		p.Email,
		p.PhoneNumber,
		p.ProfileImageURL,
		p.IsCaptain,
		int16(p.Status),
		p.Goals,
		p.Assists,
		p.CleanSheets,
		p.Appearances,
		p.YellowCards,
		p.RedCards,
		p.JoinedAt,
		p.LeftAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating player: %w", err)
	}
	return nil
}

func (db *DB) GetPlayerByID(ctx context.Context, id string) (*model.Player, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("player", id)
		}
		return nil, fmt.Errorf("postgres: getting player %s: %w", id, err)
	}
	return p, nil
}

func (db *DB) ListPlayers(ctx context.Context, filter repository.PlayerFilter) ([]model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, int16(*filter.Status))
	}
	if filter.ByPerformance {
		query += ` ORDER BY goals DESC, assists DESC, last_name ASC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing players: %w", err)
	}
	defer rows.Close()

	players := make([]model.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating players: %w", err)
	}
	return players, nil
}

func (db *DB) UpdatePlayer(ctx context.Context, p *model.Player) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	const query = `
		UPDATE players SET
			first_name = $1, last_name = $2, position = $3, jersey_number = $4,
			email = $5, phone_number = $6, profile_image_url = $7, is_captain = $8,
			status = $9, goals = $10, assists = $11, clean_sheets = $12, appearances = $13,
			yellow_cards = $14, red_cards = $15, joined_at = $16, left_at = $17, updated_at = $18
		WHERE id = $19`

	cmd, err := db.pool.Exec(ctx, query,
		p.FirstName,
		p.LastName,
		string(p.Position),
		p.JerseyNumber,
		p.Email,
		p.PhoneNumber,
		p.ProfileImageURL,
		p.IsCaptain,
		int16(p.Status),
		p.Goals,
		p.Assists,
		p.CleanSheets,
		p.Appearances,
		p.YellowCards,
		p.RedCards,
		p.JoinedAt,
		p.LeftAt,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating player %s: %w", p.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return apperror.NotFound("player", p.ID)
	}
	return nil
}

func (db *DB) DeletePlayer(ctx context.Context, id string) error {
	cmd, err := db.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting player %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return apperror.NotFound("player", id)
	}
	return nil
}

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var (
		p        model.Player
		position string
		status   int16
	)
	if err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&position,
		&p.JerseyNumber,
		&p.Email,
		&p.PhoneNumber,
		&p.ProfileImageURL,
		&p.IsCaptain,
		&status,
		&p.Goals,
		&p.Assists,
		&p.CleanSheets,
		&p.Appearances,
		&p.YellowCards,
		&p.RedCards,
		&p.JoinedAt,
		&p.LeftAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Position = model.Position(position)
	p.Status = model.PlayerStatus(status)
	return &p, nil
}
