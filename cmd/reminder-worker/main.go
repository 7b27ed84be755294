// The reminder-worker binary runs the reminder and overdue scan without
// the HTTP server, for setups where the API runs elsewhere and only the
// periodic scan should live on this machine.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"abone/internal/config"
	"abone/internal/log"
	"abone/internal/rates"
	"abone/internal/services"
	"abone/internal/storage"
	"abone/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentReminder)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize sqlite repository", log.FieldError, err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := rates.NewProvider(rates.Config{
		Endpoint:  cfg.ExchangeAPIURL,
		APIKey:    cfg.ExchangeAPIKey,
		TTL:       cfg.RateTTL,
		Snapshots: repo,
		Logger:    logger.WithComponent(log.ComponentRates),
	})
	provider.Restore(ctx)

	service := services.NewSubscriptionService(repo, provider, logger)
	reminder := worker.NewReminder(repo, service, cfg.ReminderInterval, logger)

	if err := reminder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
