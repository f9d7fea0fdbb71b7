// Package httpapi exposes the published snapshot over HTTP: the full
// calendar contract, the minimal EA array, freshness-driven health and
// status endpoints, a Prometheus metrics endpoint, and the license check.
// Every request re-reads the snapshot from disk; atomic publication on the
// ingest side is the only synchronization with readers.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ffnews/calendar-service/internal/adapter/snapshot"
	"github.com/ffnews/calendar-service/internal/domain"
	"github.com/ffnews/calendar-service/internal/license"
	"github.com/ffnews/calendar-service/internal/runlog"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the calendar API.
type Server struct {
	httpServer *http.Server
	reader     *snapshot.Reader
	runLogPath string
	tailLines  int
	logger     *slog.Logger
	clock      clockwork.Clock
	started    time.Time
}

// NewServer wires the routes. licenseHandler may be nil, in which case the
// license endpoint is not mounted.
func NewServer(addr string, reader *snapshot.Reader, runLogPath string, tailLines int, licenseHandler *license.Handler, logger *slog.Logger, clock clockwork.Clock) *Server {
	s := &Server{
		reader:     reader,
		runLogPath: runLogPath,
		tailLines:  tailLines,
		logger:     logger,
		clock:      clock,
		started:    clock.Now(),
	}

	r := chi.NewRouter()

	r.Get("/v1/health", s.handleHealth(""))
	r.Get("/health", s.handleHealth(""))
	r.Get("/api/health", s.handleHealth("ff-news-api"))
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/calendar", s.handleCalendar)
	r.Get("/api/news/latest.json", s.handleLatestForEA)
	r.Get("/api/news", s.handleCalendar)
	r.Get("/api/news/*", s.handleCalendar)
	r.Get("/metrics", promhttp.HandlerFor(s.gaugeRegistry(), promhttp.HandlerOpts{}).ServeHTTP)

	if licenseHandler != nil {
		r.Get("/license/check", licenseHandler.Check)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type healthBody struct {
	Status  string             `json:"status"`
	Service string             `json:"service,omitempty"`
	TimeUTC string             `json:"time_utc"`
	Cache   snapshot.Freshness `json:"cache"`
}

// handleHealth reports ok/degraded from snapshot freshness. Staleness turns
// the status code to 503 but never blocks serving the data endpoints.
func (s *Server) handleHealth(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		fresh := s.reader.Freshness()
		status := http.StatusOK
		verdict := "ok"
		if fresh.Stale {
			status = http.StatusServiceUnavailable
			verdict = "degraded"
		}

		writeJSON(w, status, healthBody{
			Status:  verdict,
			Service: service,
			TimeUTC: domain.FormatUTCISO(s.clock.Now()),
			Cache:   fresh,
		})
	}
}

type statusCache struct {
	Path              string  `json:"path"`
	Exists            bool    `json:"exists"`
	Bytes             int64   `json:"bytes"`
	MtimeUTC          *string `json:"mtime_utc"`
	AgeSec            *int64  `json:"age_sec"`
	RefreshSeconds    int64   `json:"refresh_seconds"`
	StaleGraceSeconds int64   `json:"stale_grace_seconds"`
	Stale             bool    `json:"stale"`
	JSONReadOK        bool    `json:"json_read_ok"`
	JSONError         *string `json:"json_error"`
}

type statusIngest struct {
	GeneratedAtUTC *string `json:"generated_at_utc"`
	LogOK          bool    `json:"log_ok"`
	LogError       *string `json:"log_error"`
	LastOkUTC      *string `json:"last_ok_utc"`
	LastErrorUTC   *string `json:"last_error_utc"`
	LastErrorMsg   *string `json:"last_error_msg"`
}

type statusBody struct {
	Status    string       `json:"status"`
	TimeUTC   string       `json:"time_utc"`
	UptimeSec int64        `json:"uptime_sec"`
	Cache     statusCache  `json:"cache"`
	Ingest    statusIngest `json:"ingest"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	fresh := s.reader.Freshness()
	doc, readOK := s.reader.Read()

	cache := statusCache{
		Path:              s.reader.Path,
		Exists:            fresh.Exists,
		Bytes:             fresh.Bytes,
		MtimeUTC:          fresh.MtimeUTC,
		AgeSec:            fresh.AgeSec,
		RefreshSeconds:    fresh.RefreshSeconds,
		StaleGraceSeconds: fresh.StaleGraceSeconds,
		Stale:             fresh.Stale,
		JSONReadOK:        readOK,
	}
	if !readOK {
		cache.JSONError = optString(doc.Meta.Error)
	}

	ingest := statusIngest{}
	if readOK {
		ingest.GeneratedAtUTC = optString(doc.Meta.GeneratedAtUTC)
	}

	summary, err := runlog.ScanTail(s.runLogPath, s.tailLines)
	if err != nil {
		ingest.LogError = optString(err.Error())
	} else {
		ingest.LogOK = true
		ingest.LastOkUTC = optString(summary.LastOkUTC)
		ingest.LastErrorUTC = optString(summary.LastErrorUTC)
		ingest.LastErrorMsg = optString(summary.LastErrorMsg)
	}

	writeJSON(w, http.StatusOK, statusBody{
		Status:    "ok",
		TimeUTC:   domain.FormatUTCISO(s.clock.Now()),
		UptimeSec: int64(s.clock.Since(s.started) / time.Second),
		Cache:     cache,
		Ingest:    ingest,
	})
}

// handleCalendar serves the full repaired contract. An unreadable snapshot
// degrades to 503 with an error-marker document, never a bare error.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	doc, readOK := s.reader.Read()
	status := http.StatusOK
	if !readOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, doc)
}

// handleLatestForEA serves the minimal flattened array. Structurally it
// never fails: an unreadable snapshot yields an empty array with 503.
func (s *Server) handleLatestForEA(w http.ResponseWriter, _ *http.Request) {
	doc, readOK := s.reader.Read()
	status := http.StatusOK
	if !readOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, domain.ProjectMinimal(doc.Events))
}

// gaugeRegistry builds a dedicated registry holding the serving-side gauges,
// evaluated live at scrape time against the snapshot and run log.
func (s *Server) gaugeRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ffnews_cache_age_seconds",
		Help: "Age of the published snapshot file.",
	}, func() float64 {
		st := s.reader.Stat()
		if st.AgeSec == nil {
			return 0
		}
		return float64(*st.AgeSec)
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ffnews_cache_events_count",
		Help: "Number of events in the published snapshot.",
	}, func() float64 {
		doc, ok := s.reader.Read()
		if !ok {
			return 0
		}
		return float64(len(doc.Events))
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ffnews_ingest_last_ok_epoch",
		Help: "Epoch of the last successful ingestion run.",
	}, func() float64 {
		summary, err := runlog.ScanTail(s.runLogPath, s.tailLines)
		if err != nil || summary.LastOkUTC == "" {
			return 0
		}
		t, err := time.Parse(time.RFC3339, summary.LastOkUTC)
		if err != nil {
			return 0
		}
		return float64(t.Unix())
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ffnews_service_uptime_seconds",
		Help: "Seconds since the serving process started.",
	}, func() float64 {
		return float64(int64(s.clock.Since(s.started) / time.Second))
	}))

	return reg
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
