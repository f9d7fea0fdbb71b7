// Command api is the read-only serving layer. It re-reads the published
// snapshot on every request and exposes the calendar contract, the minimal
// EA array, freshness-driven health and status endpoints, Prometheus
// metrics, and (when a database is configured) the license check.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ffnews/calendar-service/internal/adapter/httpapi"
	"github.com/ffnews/calendar-service/internal/adapter/snapshot"
	"github.com/ffnews/calendar-service/internal/config"
	"github.com/ffnews/calendar-service/internal/license"
	"github.com/ffnews/calendar-service/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := snapshot.NewReader(cfg.CacheFile, cfg.SourceName, cfg.RefreshInterval, cfg.StaleGrace)

	var licenseHandler *license.Handler
	if cfg.LicenseDatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.LicenseDatabaseURL)
		if err != nil {
			logger.Error("failed to open license database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		licenseHandler = license.NewHandler(cfg.LicenseSecret, license.NewPostgresStore(pool), logger, clock)
		logger.Info("license checking enabled")
	} else {
		logger.Info("license checking disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, reader, cfg.RunLogFile, cfg.LogTailLines, licenseHandler, logger, clock)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
