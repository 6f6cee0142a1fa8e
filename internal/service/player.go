package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/clock"
	"github.com/sundayleague/league-api/internal/model"
	"github.com/sundayleague/league-api/internal/repository"
)

// Field limits for player records.
const (
	MaxNameLength     = 50
	MinPhoneLength    = 7
	MaxPhoneLength    = 20
	MaxImageURLLength = 500
	MaxJerseyNumber   = 99
)

// PlayerService owns the player lifecycle:
//
//	request to join ──▶ PENDING ──approve──▶ ACTIVE
//	                       │                   │
//	                     reject              remove
//	                       ▼                   ▼
//	                    (row deleted)     (row deleted)
//
// Admins can also create a player directly in ACTIVE.
type PlayerService struct {
	repo   repository.PlayerRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewPlayerService(repo repository.PlayerRepository, clk clock.Clock, logger *slog.Logger) *PlayerService {
	return &PlayerService{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

// PlayerInput is the data a caller supplies when creating a player.
// Stats are only honoured on admin creation.
type PlayerInput struct {
	FirstName       string
	LastName        string
	Position        model.Position
	JerseyNumber    *int
	Email           *string
	PhoneNumber     *string
	ProfileImageURL *string
	IsCaptain       bool
	Stats           model.PlayerStats
}

func (in PlayerInput) toPlayer() *model.Player {
	p := &model.Player{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Position:        model.Position(strings.ToUpper(strings.TrimSpace(string(in.Position)))),
		JerseyNumber:    in.JerseyNumber,
		Email:           trimOptional(in.Email),
		PhoneNumber:     trimOptional(in.PhoneNumber),
		ProfileImageURL: trimOptional(in.ProfileImageURL),
		IsCaptain:       in.IsCaptain,
	}
	in.Stats.Apply(p)
	return p
}

// RequestToJoin records a self-registration. The submission is validated
// as sent, so a clean sheets count on an outfield position is rejected.
// The stored player then starts PENDING with a clean stat sheet and no
// captaincy, whatever the caller sent.
func (s *PlayerService) RequestToJoin(ctx context.Context, in PlayerInput) (*model.Player, error) {
	p := in.toPlayer()
	if err := s.validate(p); err != nil {
		return nil, err
	}

	model.PlayerStats{}.Apply(p)
	p.CleanSheets, _ = model.NormalizeCleanSheets(p.Position, nil)
	p.IsCaptain = false
	p.Status = model.StatusPending
	p.CreatedAt = s.clock.Now()

	if err := s.repo.CreatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("service/player: creating join request: %w", err)
	}

	s.logger.Info("player join requested",
		slog.String("playerID", p.ID),
		slog.String("position", string(p.Position)),
	)
	return p, nil
}

// Create adds a player straight onto the roster (admin only).
func (s *PlayerService) Create(ctx context.Context, in PlayerInput) (*model.Player, error) {
	now := s.clock.Now()

	p := in.toPlayer()
	p.Status = model.StatusActive
	p.JoinedAt = &now
	p.CreatedAt = now

	if err := s.validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("service/player: creating player: %w", err)
	}

	s.logger.Info("player created", slog.String("playerID", p.ID))
	return p, nil
}

func (s *PlayerService) Get(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: getting player %s: %w", id, err)
	}
	return p, nil
}

// List returns every player, newest first.
func (s *PlayerService) List(ctx context.Context) ([]model.Player, error) {
	players, err := s.repo.ListPlayers(ctx, repository.PlayerFilter{})
	if err != nil {
		return nil, fmt.Errorf("service/player: listing players: %w", err)
	}
	return players, nil
}

// Roster returns ACTIVE players ordered by goals, then assists.
func (s *PlayerService) Roster(ctx context.Context) ([]model.Player, error) {
	active := model.StatusActive
	players, err := s.repo.ListPlayers(ctx, repository.PlayerFilter{
		Status:        &active,
		ByPerformance: true,
	})
	if err != nil {
		return nil, fmt.Errorf("service/player: listing roster: %w", err)
	}
	return players, nil
}

// Requests returns PENDING players.
func (s *PlayerService) Requests(ctx context.Context) ([]model.Player, error) {
	pending := model.StatusPending
	players, err := s.repo.ListPlayers(ctx, repository.PlayerFilter{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("service/player: listing requests: %w", err)
	}
	return players, nil
}

// Approve moves a player to ACTIVE and stamps JoinedAt with the current
// time. It works from any state.
func (s *PlayerService) Approve(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: approving %s: %w", id, err)
	}

	now := s.clock.Now()
	p.Status = model.StatusActive
	p.JoinedAt = &now
	p.UpdatedAt = now

	if err := s.repo.UpdatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("service/player: approving %s: %w", id, err)
	}

	s.logger.Info("player approved", slog.String("playerID", id))
	return p, nil
}

// Reject deletes a join request and returns the record as it was.
func (s *PlayerService) Reject(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: rejecting %s: %w", id, err)
	}
	s.logger.Info("player request rejected", slog.String("playerID", id))
	return p, nil
}

// Remove deletes a player from the squad outright.
func (s *PlayerService) Remove(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: removing %s: %w", id, err)
	}
	s.logger.Info("player removed", slog.String("playerID", id))
	return p, nil
}

func (s *PlayerService) delete(ctx context.Context, id string) (*model.Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Another request may have deleted it since the read; the store then
	// reports NotFound.
	if err := s.repo.DeletePlayer(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// Update merges patch onto the stored player.
//
// If the position moves to one that doesn't keep clean sheets and the
// patch says nothing about clean sheets, the old count is dropped rather
// than failing validation.
func (s *PlayerService) Update(ctx context.Context, id string, patch model.PlayerPatch) (*model.Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: updating %s: %w", id, err)
	}
	if patch.IsEmpty() {
		return p, nil
	}

	patch.Apply(p)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Position = model.Position(strings.ToUpper(strings.TrimSpace(string(p.Position))))
	p.Email = trimOptional(p.Email)
	p.PhoneNumber = trimOptional(p.PhoneNumber)
	p.ProfileImageURL = trimOptional(p.ProfileImageURL)
	if patch.Position != nil && patch.CleanSheets == nil && !p.Position.KeepsCleanSheets() {
		p.CleanSheets = nil
	}

	if err := s.validate(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("service/player: updating %s: %w", id, err)
	}

	s.logger.Info("player updated", slog.String("playerID", id))
	return p, nil
}

// UpdateStats replaces the aggregated stats of a player.
func (s *PlayerService) UpdateStats(ctx context.Context, id string, stats model.PlayerStats) (*model.Player, error) {
	p, err := s.repo.GetPlayerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/player: updating stats for %s: %w", id, err)
	}

	stats.Apply(p)
	if err := s.validate(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("service/player: updating stats for %s: %w", id, err)
	}

	s.logger.Info("player stats updated",
		slog.String("playerID", id),
		slog.Int("goals", p.Goals),
		slog.Int("assists", p.Assists),
	)
	return p, nil
}

// validate checks field rules and normalizes CleanSheets in place. It runs
// before anything is persisted.
func (s *PlayerService) validate(p *model.Player) error {
	if err := checkName("first_name", p.FirstName); err != nil {
		return err
	}
	if err := checkName("last_name", p.LastName); err != nil {
		return err
	}
	if !p.Position.Valid() {
		return apperror.ValidationFailed("position", fmt.Sprintf("unknown position %q", p.Position))
	}
	if p.JerseyNumber != nil && (*p.JerseyNumber < 0 || *p.JerseyNumber > MaxJerseyNumber) {
		return apperror.ValidationFailed("jersey_number", fmt.Sprintf("jersey number must be between 0 and %d", MaxJerseyNumber))
	}
	if p.PhoneNumber != nil {
		if n := len(*p.PhoneNumber); n < MinPhoneLength || n > MaxPhoneLength {
			return apperror.ValidationFailed("phone_number",
				fmt.Sprintf("phone number must be %d to %d characters", MinPhoneLength, MaxPhoneLength))
		}
	}
	if p.ProfileImageURL != nil && len(*p.ProfileImageURL) > MaxImageURLLength {
		return apperror.ValidationFailed("profile_image_url",
			fmt.Sprintf("profile image url must be %d characters or fewer", MaxImageURLLength))
	}

	for field, v := range map[string]int{
		"goals":        p.Goals,
		"assists":      p.Assists,
		"appearances":  p.Appearances,
		"yellow_cards": p.YellowCards,
		"red_cards":    p.RedCards,
	} {
		if v < 0 {
			return apperror.ValidationFailed(field, field+" cannot be negative")
		}
	}

	cs, err := model.NormalizeCleanSheets(p.Position, p.CleanSheets)
	if err != nil {
		return err
	}
	p.CleanSheets = cs
	return nil
}

func checkName(field, v string) error {
	if v == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(v) > MaxNameLength {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or fewer", field, MaxNameLength))
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
