package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ffnews/calendar-service/internal/adapter/feed"
	"github.com/ffnews/calendar-service/internal/adapter/snapshot"
	"github.com/ffnews/calendar-service/internal/domain"
	"github.com/ffnews/calendar-service/internal/observability"
	"github.com/ffnews/calendar-service/internal/pipeline"
	"github.com/ffnews/calendar-service/internal/runlog"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedJSON = `[
	{"country":"USD","title":"Non-Farm Employment Change","impact":"High","date":"03-08-2024","time":"8:30am","forecast":"198K","previous":"229K"},
	{"country":"USD","title":"CPI m/m","impact":"High","epoch":1709645400,"actual":"0.4%"},
	{"country":"","title":"Orphan Row","impact":"Low","epoch":1709645400}
]`

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<weeklyevents>
  <event>
    <country>EUR</country>
    <title>Main Refinancing Rate</title>
    <impact>High</impact>
    <date>03-07-2024</date>
    <time>8:15am</time>
  </event>
</weeklyevents>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sourceZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(domain.DefaultSourceZone)
	require.NoError(t, err)
	return loc
}

// runIngest wires the real fetch → canonicalize → publish → log pipeline
// against the given feed URLs and a temp cache dir, then returns the paths.
func runIngest(t *testing.T, clock clockwork.Clock, jsonURL, xmlURL string) (cachePath, logPath string, runErr error) {
	t.Helper()
	dir := t.TempDir()
	cachePath = filepath.Join(dir, "latest.json")
	logPath = filepath.Join(dir, "ingest.log")

	client := feed.NewClient(jsonURL, xmlURL, "ff-news-ingest/test", 5*time.Second, sourceZone(t), discardLogger())
	p := pipeline.New(
		client,
		snapshot.NewWriter(cachePath),
		runlog.NewLogger(logPath),
		discardLogger(),
		observability.NewMetricsForTesting(),
		clock,
		"ForexFactory calendar",
	)
	return cachePath, logPath, p.Run(context.Background())
}

func TestIngestFlow_JSONPrimary(t *testing.T) {
	var xmlHits atomic.Int32
	jsonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedJSON))
	}))
	t.Cleanup(jsonSrv.Close)
	xmlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlHits.Add(1)
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(xmlSrv.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	cachePath, logPath, err := runIngest(t, clock, jsonSrv.URL, xmlSrv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(0), xmlHits.Load(), "fallback must not fire when primary succeeds")

	// Consume through the real reader, exactly as the serving side does.
	reader := snapshot.NewReader(cachePath, "ForexFactory calendar", 300*time.Second, 60*time.Second)
	doc, ok := reader.Read()
	require.True(t, ok)

	// The orphan row without a currency is dropped at admission.
	assert.Equal(t, 2, doc.Meta.Count)
	assert.Equal(t, "2024-03-05T12:00:00Z", doc.Meta.GeneratedAtUTC)
	assert.Equal(t, "ForexFactory calendar", doc.Meta.Source)
	require.Len(t, doc.Events, 2)

	// Chronological order: CPI (Mar 5) before NFP (Mar 8).
	assert.Equal(t, "USD-1709645400-cpi-m-m", doc.Events[0]["id"])
	assert.Equal(t, "USD-1709904600-non-farm-employment-change", doc.Events[1]["id"])
	assert.Equal(t, "2024-03-08T13:30:00Z", doc.Events[1]["datetime_utc"])

	// Run log records the success with the published count.
	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T12:00:00Z ingest_ok count=2\n", string(logData))

	// The minimal projection works off the same snapshot.
	minimal := domain.ProjectMinimal(doc.Events)
	require.Len(t, minimal, 2)
	assert.Equal(t, "High", minimal[0].Impact)
	assert.Equal(t, int64(1709645400), minimal[0].Epoch)
}

func TestIngestFlow_XMLFallback(t *testing.T) {
	jsonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unhappy", http.StatusBadGateway)
	}))
	t.Cleanup(jsonSrv.Close)
	xmlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(xmlSrv.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	cachePath, _, err := runIngest(t, clock, jsonSrv.URL, xmlSrv.URL)
	require.NoError(t, err)

	reader := snapshot.NewReader(cachePath, "ForexFactory calendar", 300*time.Second, 60*time.Second)
	doc, ok := reader.Read()
	require.True(t, ok)

	require.Equal(t, 1, doc.Meta.Count)
	// Mar 7 2024 8:15am America/New_York is EST, UTC-5.
	assert.Equal(t, "2024-03-07T13:15:00Z", doc.Events[0]["datetime_utc"])
	assert.Equal(t, "EUR", doc.Events[0]["currency"])
	assert.Equal(t, "high", doc.Events[0]["impact"])
}

func TestIngestFlow_BothSourcesDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	cachePath, logPath, err := runIngest(t, clock, down.URL, down.URL)
	require.Error(t, err)

	// No snapshot is published; the failure lands in the run log.
	_, statErr := os.Stat(cachePath)
	assert.True(t, os.IsNotExist(statErr))

	logData, readErr := os.ReadFile(logPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(logData), "2024-03-05T12:00:00Z ingest_error err=")
}
