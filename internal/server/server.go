// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP listener with
// graceful shutdown.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config ──▶ openStore ──▶ repository.Store (sqlite or postgres)
//	                                   │
//	              AuthService ◀────────┤──────▶ PlayerService
//	                   │                              │
//	              AuthHandler                   PlayerHandler
//
// Handlers only see services; services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sundayleague/league-api/internal/auth"
	"github.com/sundayleague/league-api/internal/clock"
	"github.com/sundayleague/league-api/internal/config"
	"github.com/sundayleague/league-api/internal/handler"
	"github.com/sundayleague/league-api/internal/middleware"
	"github.com/sundayleague/league-api/internal/repository"
	"github.com/sundayleague/league-api/internal/repository/postgres"
	sqliteRepo "github.com/sundayleague/league-api/internal/repository/sqlite"
	"github.com/sundayleague/league-api/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the store. The store is closed when Start
// returns, or by Close when the server was never started.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	clock  clock.Clock
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces the wall clock used for token expiry and approval
// timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New opens the store, bootstraps the admin account if configured and
// wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s.store = store

	if err := s.setupRoutes(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// openStore picks the backend from the URL scheme. postgres:// and
// postgresql:// go to pgx; anything else is a SQLite path, with an optional
// sqlite:// prefix ("sqlite://data/league.db", "sqlite:///var/lib/league.db").
func openStore(ctx context.Context, db config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	url := db.URL
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		pg, err := postgres.New(ctx, url, postgres.PoolConfig{
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			MaxConnIdleTime: db.ConnMaxIdleTime,
			MaxConnLifetime: db.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	path := strings.TrimPrefix(url, "sqlite://")
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	}
	lite, err := sqliteRepo.New(path, logger)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                    store ping
//	GET    /metrics                    Prometheus exposition
//	POST   /auth/register              create account [rate limited]
//	POST   /auth/login                 email + password → bearer token [rate limited]
//	POST   /auth/logout                no-op acknowledgement
//	GET    /auth/me                    [auth]
//	POST   /players                    request to join (PENDING)
//	GET    /players                    all players, newest first
//	GET    /players/roster             ACTIVE, by goals then assists
//	GET    /players/active-players     same as roster
//	GET    /players/requests           PENDING
//	GET    /players/{id}
//	PUT    /players/{id}/approve       [admin]
//	DELETE /players/{id}/reject        [admin]
//	POST   /admin/players              [admin] create ACTIVE
//	PATCH  /admin/players/{id}         [admin]
//	PUT    /admin/players/{id}/stats   [admin]
//	DELETE /admin/players/{id}         [admin]
//
// MIDDLEWARE ORDER MATTERS: RequestID runs before Logger so every log line
// carries the id, and Recoverer sits inside Logger so a panic is still
// logged as a 500.
func (s *Server) setupRoutes(ctx context.Context) error {
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret,
		auth.WithTTL(s.config.Auth.AccessTokenTTL),
		auth.WithClock(s.clock),
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	playerService := service.NewPlayerService(s.store, s.clock, s.logger)

	if s.config.Auth.AdminEmail != "" && s.config.Auth.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, s.config.Auth.AdminEmail, s.config.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
		if created {
			s.logger.Info("bootstrapped admin account", slog.String("email", s.config.Auth.AdminEmail))
		}
	}

	authHandler := handler.NewAuthHandler(authService, s.logger)
	playerHandler := handler.NewPlayerHandler(playerService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	if s.config.Server.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Handler)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := auth.RequireAuth(tokens, authService, s.logger)
	limiter := middleware.NewRateLimiter(s.config.Auth.RateLimitPerMinute, s.config.Auth.RateLimitBurst, s.logger)

	// === Operational ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// === Auth ===
	s.router.Route("/auth", func(r chi.Router) {
		r.With(limiter.Handler).Post("/register", authHandler.HandleRegister)
		r.With(limiter.Handler).Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	// === Players ===
	s.router.Route("/players", func(r chi.Router) {
		r.Post("/", playerHandler.HandleRequestToJoin)
		r.Get("/", playerHandler.HandleList)
		r.Get("/roster", playerHandler.HandleRoster)
		r.Get("/active-players", playerHandler.HandleRoster)
		r.Get("/requests", playerHandler.HandleRequests)
		r.Get("/{id}", playerHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Put("/{id}/approve", playerHandler.HandleApprove)
			r.Delete("/{id}/reject", playerHandler.HandleReject)
		})
	})

	// === Admin ===
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, auth.RequireAdmin)
		r.Post("/players", playerHandler.HandleCreate)
		r.Patch("/players/{id}", playerHandler.HandleUpdate)
		r.Put("/players/{id}/stats", playerHandler.HandleUpdateStats)
		r.Delete("/players/{id}", playerHandler.HandleRemove)
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Start already does this on its way out.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
