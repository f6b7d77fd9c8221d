// Package main is the entry point for the TaskFlow API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // loads .env before config is read

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, reset, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd); err != nil {
		log.Fatalf("taskflow-api: %v", err)
	}
}

func run(ctx context.Context, migrateCmd string) error {
	cfg, l, err := initializeApp()
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("driver", cfg.Database.Driver))
	l.Debug("auth configuration", slog.Bool("jwt_secret_present", cfg.Auth.JWTSecret != ""))

	return cfg, l, nil
}

// runMigrations applies goose migrations. Mongo has no schema; its indexes
// are created at startup.
func runMigrations(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations apply to the postgres driver only, got %q", cfg.Database.Driver)
	}

	db, err := setupPostgres(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db, command, l)
}
