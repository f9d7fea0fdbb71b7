// Command ingest performs one run-to-completion ingestion of the weekly
// economic calendar: fetch (JSON primary, XML fallback), canonicalize, sort,
// publish the snapshot atomically, and append one run-log line. It is meant
// to be invoked on an external schedule (cron or a process supervisor) and
// exits 0 on success, 1 on a feed- or publish-level failure.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ffnews/calendar-service/internal/adapter/feed"
	"github.com/ffnews/calendar-service/internal/adapter/snapshot"
	"github.com/ffnews/calendar-service/internal/config"
	"github.com/ffnews/calendar-service/internal/observability"
	"github.com/ffnews/calendar-service/internal/pipeline"
	"github.com/ffnews/calendar-service/internal/runlog"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := feed.NewClient(
		cfg.JSONFeedURL,
		cfg.XMLFeedURL,
		cfg.UserAgent,
		cfg.FetchTimeout,
		cfg.SourceZone,
		logger,
	)
	writer := snapshot.NewWriter(cfg.CacheFile)
	runLog := runlog.NewLogger(cfg.RunLogFile)

	p := pipeline.New(client, writer, runLog, logger, metrics, clockwork.NewRealClock(), cfg.SourceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx); err != nil {
		os.Exit(1)
	}
}
