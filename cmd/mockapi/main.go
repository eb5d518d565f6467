// Command mockapi serves both the legacy and the new FotoFacturas API from
// one process, under /legacy and /v2, for local development and end-to-end
// runs of the client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
	"github.com/FotoFacturas/revamp-sub000/internal/server"
)

func main() {
	cfg, err := config.LoadMock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("app", cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("mockapi stopped", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(ctx context.Context, cfg config.MockConfig, logger *slog.Logger) error {
	var cache *redis.Client
	if cfg.RedisURL != "" {
		client, err := kv.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		cache = client
	} else {
		logger.Info("REDIS_URL not set, code rate limiting and upload deduplication disabled")
	}

	srv, err := server.New(cfg, cache, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()
	logger.Info("listening", "addr", cfg.Address(), "fixed_otp", cfg.OTPCode != "")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
