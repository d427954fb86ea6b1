package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financas/internal/amqp"
	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/config"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/middleware/metrics"
	"financas/internal/services"
	"financas/internal/session"
	"financas/internal/store"
	"financas/internal/summary"
)

const dashboardCacheEntries = 1000

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	household, err := cfg.Household()
	if err != nil {
		logger.Error("Invalid household configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	created, err := store.Seed(ctx, be.Store, household)
	if err != nil {
		logger.Error("Failed to seed household", log.FieldError, err)
		os.Exit(1)
	}
	if created > 0 {
		logger.Info("Seeded default categories", log.FieldHouseholdID, household.ID, "count", created)
	}

	m := metrics.New()
	dashboards, err := cache.NewMonthCache[summary.Dashboard](dashboardCacheEntries, cfg.CacheTTL)
	if err != nil {
		logger.Error("Failed to create dashboard cache", log.FieldError, err)
		os.Exit(1)
	}
	defer dashboards.Close()

	opts := []services.Option{
		services.WithDashboardCache(dashboards),
		services.WithObserver(m),
	}

	// Ledger changes are announced to the snapshot worker when AMQP is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, snapshots will only refresh periodically", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - ledger changes will not be published")
	}

	svc := services.NewLedgerService(be.Store, logger, opts...)

	gate, err := session.NewGate(session.Config{
		PasswordHash: cfg.AuthPasswordHash,
		Password:     cfg.AuthPassword,
		Secret:       cfg.SessionSecret,
		TTL:          cfg.SessionTTL,
		Household:    household,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize session gate", log.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Service:            svc,
		Gate:               gate,
		Logger:             logger,
		Metrics:            m,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldHouseholdID, household.ID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
