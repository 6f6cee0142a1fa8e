// Package main is the entry point for the league API server.
//
// main stays minimal:
//  1. load configuration (environment, optionally a .env file)
//  2. build the logger
//  3. hand both to internal/server and block until shutdown
//
// A configuration problem is fatal at startup: the process exits 1 before
// it ever listens, so no request can run with a missing secret or store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sundayleague/league-api/internal/config"
	"github.com/sundayleague/league-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Logger.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Startup (store connect, schema, admin bootstrap) gets a bounded window.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
