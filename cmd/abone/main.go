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
	"golang.org/x/sync/errgroup"

	"abone/internal/backend"
	"abone/internal/config"
	apphttp "abone/internal/http"
	"abone/internal/log"
	"abone/internal/rates"
	"abone/internal/services"
	"abone/internal/worker"
)

func main() {
	// Load .env for local development; absent in production.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.New(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.WithComponent(log.ComponentBackend))
	if err != nil {
		logger.Error("failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := rates.NewProvider(rates.Config{
		Endpoint:  cfg.ExchangeAPIURL,
		APIKey:    cfg.ExchangeAPIKey,
		TTL:       cfg.RateTTL,
		Snapshots: result.Store,
		Logger:    logger.WithComponent(log.ComponentRates),
	})
	provider.Restore(ctx)

	service := services.NewSubscriptionService(result.Store, provider, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:     ":" + cfg.Port,
		Store:    result.Store,
		Service:  service,
		Provider: provider,
		Logger:   logger.WithComponent(log.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	reminder := worker.NewReminder(result.Store, service, cfg.ReminderInterval,
		logger.WithComponent(log.ComponentReminder))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := reminder.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
