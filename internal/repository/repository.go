// Package repository declares the storage interfaces the services depend on.
// Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sundayleague/league-api/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser assigns ID and CreatedAt. A duplicate email yields
	// apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// PlayerFilter narrows ListPlayers.
type PlayerFilter struct {
	Status *model.PlayerStatus // nil means every status
	// ByPerformance orders by goals desc, then assists desc.
	// Otherwise rows come back newest first.
	ByPerformance bool
}

type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayerByID(ctx context.Context, id string) (*model.Player, error)
	ListPlayers(ctx context.Context, filter PlayerFilter) ([]model.Player, error)
	UpdatePlayer(ctx context.Context, player *model.Player) error
	DeletePlayer(ctx context.Context, id string) error
}

// Store bundles both repositories behind one handle that the server owns
// for the life of the process.
type Store interface {
	UserRepository
	PlayerRepository
	Ping(ctx context.Context) error
	Close() error
}
