package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultJSONFeedURL, cfg.JSONFeedURL)
	assert.Equal(t, defaultXMLFeedURL, cfg.XMLFeedURL)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "America/New_York", cfg.SourceZone.String())

	assert.Equal(t, defaultCacheFile, cfg.CacheFile)
	assert.Equal(t, defaultRunLogFile, cfg.RunLogFile)
	assert.Equal(t, defaultSourceName, cfg.SourceName)

	assert.Equal(t, 300*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 60*time.Second, cfg.StaleGrace)
	assert.Equal(t, 300, cfg.LogTailLines)

	assert.Equal(t, "127.0.0.1:8081", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Empty(t, cfg.LicenseSecret)
	assert.Empty(t, cfg.LicenseDatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FEED_JSON_URL", "http://localhost:9000/week.json")
	t.Setenv("FEED_XML_URL", "http://localhost:9000/week.xml")
	t.Setenv("FEED_USER_AGENT", "custom-agent/2.0")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("SOURCE_TZ", "Europe/London")
	t.Setenv("CACHE_FILE", "/tmp/latest.json")
	t.Setenv("INGEST_LOG_FILE", "/tmp/ingest.log")
	t.Setenv("SOURCE_NAME", "custom calendar")
	t.Setenv("REFRESH_INTERVAL", "10m")
	t.Setenv("STALE_GRACE", "2m")
	t.Setenv("LOG_TAIL_LINES", "50")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("LICENSE_SECRET", "0123456789abcdef")
	t.Setenv("LICENSE_DATABASE_URL", "postgres://localhost/licenses")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/week.json", cfg.JSONFeedURL)
	assert.Equal(t, "http://localhost:9000/week.xml", cfg.XMLFeedURL)
	assert.Equal(t, "custom-agent/2.0", cfg.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "Europe/London", cfg.SourceZone.String())
	assert.Equal(t, "/tmp/latest.json", cfg.CacheFile)
	assert.Equal(t, "/tmp/ingest.log", cfg.RunLogFile)
	assert.Equal(t, "custom calendar", cfg.SourceName)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 2*time.Minute, cfg.StaleGrace)
	assert.Equal(t, 50, cfg.LogTailLines)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "0123456789abcdef", cfg.LicenseSecret)
	assert.Equal(t, "postgres://localhost/licenses", cfg.LicenseDatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "-5m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidSourceZone(t *testing.T) {
	t.Setenv("SOURCE_TZ", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_TZ")
}

func TestLoad_InvalidTailLines(t *testing.T) {
	t.Setenv("LOG_TAIL_LINES", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_TAIL_LINES")
}
