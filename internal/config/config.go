// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinJWTSecretLength mirrors the check in auth.NewTokenService so a bad
// secret fails at startup with a config error.
const MinJWTSecretLength = 16

// Config aggregates runtime configuration for the service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logger   LoggerConfig
}

// ServerConfig controls the HTTP listener. TrustProxy makes the server take
// the client address from X-Forwarded-For / X-Real-IP; turn it on only
// behind a proxy that overwrites those headers.
type ServerConfig struct {
	Port               int
	CORSAllowedOrigins []string
	TrustProxy         bool
}

// DatabaseConfig selects and tunes the store. URL is either a postgres://
// DSN or a SQLite path.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// AuthConfig defines authentication parameters. AdminEmail and
// AdminPassword are optional; when both are set an admin account is
// created at startup if it doesn't exist yet. A RateLimitPerMinute of zero
// turns off throttling of register and login.
type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTL     time.Duration
	BcryptCost         int
	AdminEmail         string
	AdminPassword      string
	RateLimitPerMinute int
	RateLimitBurst     int
}

type LoggerConfig struct {
	Level string
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names
// fall back to Info.
func (l LoggerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables, applying defaults
// where possible. DATABASE_URL and JWT_SECRET have no default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error

	port, err := getEnvAsInt("PORT", 8000)
	if err != nil {
		errs = append(errs, err)
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", port))
	}

	ttlMinutes, err := getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 30)
	if err != nil {
		errs = append(errs, err)
	} else if ttlMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", ttlMinutes))
	}

	bcryptCost, err := getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		errs = append(errs, err)
	}

	trustProxy, err := getEnvAsBool("TRUSTED_PROXY", false)
	if err != nil {
		errs = append(errs, err)
	}

	ratePerMinute, err := getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	if err != nil {
		errs = append(errs, err)
	} else if ratePerMinute < 0 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must not be negative, got %d", ratePerMinute))
	}
	rateBurst, err := getEnvAsInt("AUTH_RATE_LIMIT_BURST", 5)
	if err != nil {
		errs = append(errs, err)
	}

	maxConns, err := getEnvAsInt("DB_MAX_CONNS", 10)
	if err != nil {
		errs = append(errs, err)
	}
	minConns, err := getEnvAsInt("DB_MIN_CONNS", 0)
	if err != nil {
		errs = append(errs, err)
	}
	idleSeconds, err := getEnvAsInt("DB_CONN_MAX_IDLE_SECONDS", 30)
	if err != nil {
		errs = append(errs, err)
	}
	lifeSeconds, err := getEnvAsInt("DB_CONN_MAX_LIFE_SECONDS", 300)
	if err != nil {
		errs = append(errs, err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	secret := os.Getenv("JWT_SECRET")
	switch {
	case secret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(secret) < MinJWTSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return &Config{
		Server: ServerConfig{
			Port:               port,
			CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			TrustProxy:         trustProxy,
		},
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxConns:        int32(maxConns),
			MinConns:        int32(minConns),
			ConnMaxIdleTime: time.Duration(idleSeconds) * time.Second,
			ConnMaxLifetime: time.Duration(lifeSeconds) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:          secret,
			AccessTokenTTL:     time.Duration(ttlMinutes) * time.Minute,
			BcryptCost:         bcryptCost,
			AdminEmail:         strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			RateLimitPerMinute: ratePerMinute,
			RateLimitBurst:     rateBurst,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return parsed, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return parsed, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
