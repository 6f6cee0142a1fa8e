// Package service holds the business rules. Handlers call services with
// plain Go values; services talk to storage only through the repository
// interfaces, so they can be tested with in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/auth"
	"github.com/sundayleague/league-api/internal/model"
	"github.com/sundayleague/league-api/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxEmailLength    = 254
)

// AuthService registers accounts and exchanges credentials for tokens.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → credential store
//   - tokens     *auth.TokenService        → issue JWTs
//   - passwords  *auth.PasswordService     → bcrypt hash/verify
//   - logger     *slog.Logger
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the issued token with the user it was issued for.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresIn int // seconds
}

// Register creates a non-admin account.
//
// The email pre-check gives the common case a clean Conflict; the
// store's UNIQUE constraint still catches a concurrent duplicate and
// reports the same Conflict.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email", fmt.Sprintf("email must be %d characters or fewer", MaxEmailLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("email", "Email already registered")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		// The only caller-fixable failure is the 72-byte bcrypt limit.
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      false,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login verifies credentials and issues an access token.
//
// Unknown email and wrong password produce the same Unauthenticated
// error so the endpoint can't be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login rejected", slog.String("reason", "unknown email"))
			return nil, apperror.Unauthenticated("Invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Info("login rejected", slog.String("userID", user.ID), slog.String("reason", "bad password"))
		return nil, apperror.Unauthenticated("Invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// EnsureAdmin bootstraps the first admin account. It creates an admin for
// email unless that email is already registered, and reports whether it
// created one. An existing non-admin account is a Conflict: promoting users
// is not done implicitly.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.IsAdmin:
		return false, nil
	case err == nil:
		return false, apperror.Conflict("email", "account exists but is not an admin")
	case !errors.Is(err, apperror.ErrNotFound):
		return false, fmt.Errorf("service/auth: checking admin: %w", err)
	}

	if len(password) < MinPasswordLength {
		return false, apperror.ValidationFailed("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return false, apperror.ValidationFailed("password", err.Error())
	}

	admin := &model.User{Email: email, PasswordHash: hash, IsAdmin: true}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("service/auth: creating admin: %w", err)
	}

	s.logger.Info("admin account created", slog.String("userID", admin.ID))
	return true, nil
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user id must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
