// main is the entry point of the Books API application.
//
// STARTUP SEQUENCE:
//  1. Load .env (if present) and the YAML configuration
//  2. Initialise the logger
//  3. Open the record store (SQLite or PostgreSQL) and create the table
//  4. Build the server with its route table
//  5. Serve until an OS signal (Ctrl+C / kill) arrives or the listener fails
//  6. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/books-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/books-api
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aanand-mishra/books-api/internal/config"
	"github.com/aanand-mishra/books-api/internal/server"
	"github.com/aanand-mishra/books-api/internal/storage/open"
)

func main() {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting books-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := open.Storage(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("driver", cfg.Storage.Driver))

	// Run blocks until Ctrl+C / SIGTERM or a listener failure, and closes
	// the store before returning in both cases.
	srv := server.New(cfg.HTTPServer, storage, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error",
			slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev:     human-readable text at DEBUG
// staging: JSON at DEBUG
// prod:    JSON at INFO
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}
