// Package pipeline orchestrates one ingestion run: fetch (with fallback),
// sort, atomic snapshot publication, and run-log append. A run either
// completes or aborts without touching the previously published snapshot.
package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ffnews/calendar-service/internal/adapter/feed"
	"github.com/ffnews/calendar-service/internal/domain"
	"github.com/ffnews/calendar-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// EventFetcher retrieves the canonicalized calendar from the upstream feeds.
type EventFetcher interface {
	FetchEvents(ctx context.Context) (feed.Result, error)
}

// SnapshotPublisher atomically replaces the published snapshot.
type SnapshotPublisher interface {
	Publish(doc domain.CacheDocument) error
}

// RunLogger records one outcome line per run.
type RunLogger interface {
	Success(ts string, count int) error
	Failure(ts string, runErr error) error
}

// Pipeline is a single run-to-completion ingestion job. Run-level mutual
// exclusion is an operational precondition (the external scheduler must not
// overlap runs); concurrent runs would race on the publish rename and the
// last rename wins.
type Pipeline struct {
	fetcher    EventFetcher
	publisher  SnapshotPublisher
	runLog     RunLogger
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	sourceName string
}

// New creates a Pipeline with the given stages and observability.
func New(f EventFetcher, p SnapshotPublisher, rl RunLogger, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, sourceName string) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		publisher:  p,
		runLog:     rl,
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
		sourceName: sourceName,
	}
}

// Run executes one fetch-normalize-publish cycle. Per-record failures were
// already absorbed during canonicalization; only feed-level failure (both
// feeds down) or a publish failure aborts the run, and an aborted run leaves
// the last good snapshot in place.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	ts := domain.FormatUTCISO(start)

	result, err := p.fetcher.FetchEvents(ctx)
	if err != nil {
		return p.fail(ts, err)
	}

	p.metrics.RecordsFetched.Add(float64(len(result.Events) + result.Dropped))
	p.metrics.RecordsDropped.Add(float64(result.Dropped))
	if result.Source == "xml" {
		p.metrics.FallbackUsed.Inc()
	}

	events := result.Events
	sort.SliceStable(events, func(i, j int) bool { return events[i].Epoch < events[j].Epoch })

	doc := domain.CacheDocument{
		Meta: domain.Meta{
			GeneratedAtUTC: ts,
			Source:         p.sourceName,
			Count:          len(events),
		},
		Events: events,
	}

	if err := p.publisher.Publish(doc); err != nil {
		return p.fail(ts, err)
	}

	p.metrics.EventsPublished.Add(float64(len(events)))
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())

	if err := p.runLog.Success(ts, len(events)); err != nil {
		p.logger.Warn("run log append failed", "error", err)
	}

	p.logger.Info("ingest complete",
		"count", len(events),
		"dropped", result.Dropped,
		"feed", result.Source,
	)
	return nil
}

// fail records an aborted run in metrics and the run log, then propagates
// the cause.
func (p *Pipeline) fail(ts string, runErr error) error {
	p.metrics.RunFailures.Inc()
	if err := p.runLog.Failure(ts, runErr); err != nil {
		p.logger.Warn("run log append failed", "error", err)
	}
	p.logger.Error("ingest failed", "error", runErr)
	return runErr
}
