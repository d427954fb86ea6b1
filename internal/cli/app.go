// Package cli implements the financasctl admin commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/storage"
)

// App carries what every command needs. Tests replace Open and Migrate.
type App struct {
	Config *config.Config
	Logger *log.Logger
	// Open opens the configured Record Store.
	Open func(ctx context.Context) (*backend.BackendResult, error)
	// Migrate applies schema migrations to the configured database.
	Migrate func(cfg *config.Config) error
	Now     func() time.Time
	Stdin   io.Reader
}

// NewApp loads the .env file and the environment configuration.
func NewApp() *App {
	// Optional in production.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Migrate: migrate,
		Now:     time.Now,
		Stdin:   os.Stdin,
	}
	app.Open = app.openBackend
	return app
}

func (a *App) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	if err := a.Config.ValidateStorage(); err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(a.Config)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.Logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bc)
}

func migrate(cfg *config.Config) error {
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		return storage.Migrate(storage.SQLite, cfg.SQLiteDBPath)
	case backend.PostgresBackend:
		return storage.Migrate(storage.Postgres, cfg.DatabaseURL)
	default:
		return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
	}
}

// ledger opens the store and builds a service for the configured household.
// The returned cleanup closes the store.
func (a *App) ledger(ctx context.Context) (*services.LedgerService, core.Household, func(), error) {
	h, err := a.Config.Household()
	if err != nil {
		return nil, core.Household{}, nil, err
	}
	be, err := a.Open(ctx)
	if err != nil {
		return nil, core.Household{}, nil, fmt.Errorf("open store: %w", err)
	}
	cleanup := func() {
		if err := be.Close(); err != nil {
			a.Logger.Error("Failed to close backend", log.FieldError, err)
		}
	}
	svc := services.NewLedgerService(be.Store, a.Logger, services.WithClock(a.Now))
	return svc, h, cleanup, nil
}
