package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline. In the one-shot ingest binary these mostly feed logs and tests,
// but keeping them as real collectors means a future long-running scheduler
// gets scrape-ready metrics for free.
type Metrics struct {
	RecordsFetched  prometheus.Counter
	RecordsDropped  prometheus.Counter
	EventsPublished prometheus.Counter
	FallbackUsed    prometheus.Counter
	RunFailures     prometheus.Counter
	RunDuration     prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsDropped,
		m.EventsPublished,
		m.FallbackUsed,
		m.RunFailures,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "records_fetched_total",
			Help:      "Raw records received from the feed before canonicalization.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "records_dropped_total",
			Help:      "Records rejected during canonicalization (missing fields or unparseable time).",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "events_published_total",
			Help:      "Canonical events written into published snapshots.",
		}),
		FallbackUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "fallback_used_total",
			Help:      "Runs that served from the XML fallback feed.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "run_failures_total",
			Help:      "Ingestion runs that aborted without publishing.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ffnews",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-publish run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
	}
}
