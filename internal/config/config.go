package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default feed endpoints (weekly exports) and ops paths, matching the
// original deployment layout under /opt/ff-news.
const (
	defaultJSONFeedURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"
	defaultXMLFeedURL  = "https://nfs.faireconomy.media/ff_calendar_thisweek.xml"
	defaultCacheFile   = "/opt/ff-news/cache/latest.json"
	defaultRunLogFile  = "/opt/ff-news/logs/ingest.log"
	defaultSourceName  = "ForexFactory calendar"
	defaultUserAgent   = "ff-news-ingest/1.0"
)

// Config holds all settings for both binaries, populated from environment
// variables (with optional .env file support).
type Config struct {
	// Feed fetch.
	JSONFeedURL  string
	XMLFeedURL   string
	UserAgent    string
	FetchTimeout time.Duration
	SourceZone   *time.Location

	// Published artifacts.
	CacheFile  string
	RunLogFile string
	SourceName string

	// Freshness policy.
	RefreshInterval time.Duration
	StaleGrace      time.Duration
	LogTailLines    int

	// Serving process.
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// License checking (serving process; disabled when the URL is empty).
	LicenseSecret      string
	LicenseDatabaseURL string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	refresh, err := envDuration("REFRESH_INTERVAL", 300*time.Second)
	if err != nil {
		return nil, err
	}
	grace, err := envDuration("STALE_GRACE", 60*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	zoneName := envOrDefault("SOURCE_TZ", "America/New_York")
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TZ %q: %w", zoneName, err)
	}

	tailLines, err := envInt("LOG_TAIL_LINES", 300)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		JSONFeedURL:  envOrDefault("FEED_JSON_URL", defaultJSONFeedURL),
		XMLFeedURL:   envOrDefault("FEED_XML_URL", defaultXMLFeedURL),
		UserAgent:    envOrDefault("FEED_USER_AGENT", defaultUserAgent),
		FetchTimeout: fetchTimeout,
		SourceZone:   zone,

		CacheFile:  envOrDefault("CACHE_FILE", defaultCacheFile),
		RunLogFile: envOrDefault("INGEST_LOG_FILE", defaultRunLogFile),
		SourceName: envOrDefault("SOURCE_NAME", defaultSourceName),

		RefreshInterval: refresh,
		StaleGrace:      grace,
		LogTailLines:    tailLines,

		HTTPAddr:        envOrDefault("HTTP_ADDR", "127.0.0.1:8081"),
		ShutdownTimeout: shutdownTimeout,

		LicenseSecret:      os.Getenv("LICENSE_SECRET"),
		LicenseDatabaseURL: os.Getenv("LICENSE_DATABASE_URL"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.JSONFeedURL == "" {
		return nil, errors.New("FEED_JSON_URL is required")
	}
	if cfg.XMLFeedURL == "" {
		return nil, errors.New("FEED_XML_URL is required")
	}
	if cfg.CacheFile == "" {
		return nil, errors.New("CACHE_FILE is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
