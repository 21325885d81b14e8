// Command sync runs a single fetch-normalize-persist cycle and exits, for
// cron jobs and manual refreshes.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/protest-map-etl/internal/app"
	"github.com/couchcryptid/protest-map-etl/internal/config"
	"github.com/couchcryptid/protest-map-etl/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Pipeline.Sync(ctx); err != nil {
		logger.Error("sync failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("sync complete")
}
