// Package auth provides credential hashing, JWT issuance and verification,
// and the HTTP middleware that turns a bearer token into a user.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs email + password to /auth/login
//  2. Server verifies the bcrypt hash and issues a signed JWT (sub = user ID)
//  3. Client sends "Authorization: Bearer <token>" on every protected call
//  4. RequireAuth verifies the token, loads the user, and puts it in the
//     request context; RequireAdmin then checks the admin flag
//
// Tokens are stateless. There is no revocation list, so logout is a no-op
// on the server and the TTL bounds how long a leaked token stays useful.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<userID>","iat":...,"exp":...,"iss":"sunday-league"}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sundayleague/league-api/internal/clock"
)

const (
	// DefaultTokenTTL is how long an access token stays valid.
	DefaultTokenTTL = 30 * time.Minute

	tokenIssuer     = "sunday-league"
	minSecretLength = 16
)

// ErrInvalidToken is returned by Verify for every failure cause: malformed,
// wrong signature, wrong issuer, expired, or missing subject. Callers must
// not be able to tell these apart.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService handles JWT creation and validation.
//
// The secret is loaded once at startup and shared by Issue and Verify.
// The clock is injectable so expiry can be tested without sleeping.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces the wall clock used for iat, exp, and expiry checks.
func WithClock(c clock.Clock) TokenOption {
	return func(s *TokenService) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates and signs a new access token for subject (a user ID).
func (s *TokenService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := s.clock.Now()
	c := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token and returns its subject.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - exp is present and in the future according to the injected clock
//   - Issuer is "sunday-league"
//   - Algorithm is HS256 (prevents "alg":"none" and algorithm confusion)
//
// Any failure yields ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
