package feed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ffnews/calendar-service/internal/domain"
)

// FetchError reports that both feeds failed. The fallback is only ever
// attempted after a primary failure, so both causes are always populated.
type FetchError struct {
	Primary  error
	Fallback error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("primary feed: %v; fallback feed: %v", e.Primary, e.Fallback)
}

// Result is one successful fetch: canonical events plus which feed produced
// them and how many records were dropped during canonicalization.
type Result struct {
	Events  []domain.CalendarEvent
	Source  string // "json" or "xml"
	Dropped int
}

// Client fetches the weekly calendar, preferring the JSON feed and falling
// back to the XML feed on any primary failure (transport error, non-2xx
// status, or a payload that is not an event sequence).
type Client struct {
	httpClient *http.Client
	jsonURL    string
	xmlURL     string
	userAgent  string
	zone       *time.Location
	logger     *slog.Logger
}

// NewClient creates a feed client with a bounded request timeout.
func NewClient(jsonURL, xmlURL, userAgent string, timeout time.Duration, zone *time.Location, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		jsonURL:    jsonURL,
		xmlURL:     xmlURL,
		userAgent:  userAgent,
		zone:       zone,
		logger:     logger,
	}
}

// FetchEvents fetches and canonicalizes the calendar. The XML feed is
// contacted only if the JSON feed fails, and exactly once; if both fail the
// combined *FetchError propagates and no partial result is returned.
func (c *Client) FetchEvents(ctx context.Context) (Result, error) {
	result, errJSON := c.fetchJSON(ctx)
	if errJSON == nil {
		return result, nil
	}
	c.logger.Warn("primary feed failed, trying xml fallback", "error", errJSON)

	result, errXML := c.fetchXML(ctx)
	if errXML == nil {
		return result, nil
	}
	return Result{}, &FetchError{Primary: errJSON, Fallback: errXML}
}

func (c *Client) fetchJSON(ctx context.Context) (Result, error) {
	body, err := c.get(ctx, c.jsonURL, "application/json,text/plain,*/*")
	if err != nil {
		return Result{}, err
	}

	var records []domain.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return Result{}, fmt.Errorf("json payload is not an event array: %w", err)
	}

	events, dropped := c.canonicalizeAll(records)
	return Result{Events: events, Source: "json", Dropped: dropped}, nil
}

func (c *Client) fetchXML(ctx context.Context) (Result, error) {
	body, err := c.get(ctx, c.xmlURL, "application/xml,text/xml,*/*")
	if err != nil {
		return Result{}, err
	}

	records, err := parseXMLPayload(body)
	if err != nil {
		return Result{}, err
	}

	events, dropped := c.canonicalizeAll(records)
	return Result{Events: events, Source: "xml", Dropped: dropped}, nil
}

// get performs one bounded request and returns the body for 2xx responses.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// canonicalizeAll runs every raw record through canonicalization, keeping
// admitted events and counting silent drops.
func (c *Client) canonicalizeAll(records []domain.RawRecord) ([]domain.CalendarEvent, int) {
	events := make([]domain.CalendarEvent, 0, len(records))
	dropped := 0
	for _, raw := range records {
		event, err := domain.Canonicalize(raw, c.zone)
		if err != nil {
			c.logger.Debug("record dropped", "error", err)
			dropped++
			continue
		}
		events = append(events, event)
	}
	return events, dropped
}

// xmlEvent mirrors one <event> element of the weekly XML export.
type xmlEvent struct {
	Country  string `xml:"country"`
	Date     string `xml:"date"`
	Time     string `xml:"time"`
	Impact   string `xml:"impact"`
	Title    string `xml:"title"`
	Actual   string `xml:"actual"`
	Forecast string `xml:"forecast"`
	Previous string `xml:"previous"`
	URL      string `xml:"url"`
}

type xmlWeekly struct {
	Events []xmlEvent `xml:"event"`
}

// parseXMLPayload walks the XML document and converts each <event> element
// into a raw record with the same field names the JSON feed uses, so both
// formats share one canonicalization path.
func parseXMLPayload(body []byte) ([]domain.RawRecord, error) {
	var weekly xmlWeekly
	if err := xml.Unmarshal(body, &weekly); err != nil {
		return nil, fmt.Errorf("parse xml payload: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(weekly.Events))
	for _, ev := range weekly.Events {
		records = append(records, domain.RawRecord{
			"country":  ev.Country,
			"date":     ev.Date,
			"time":     ev.Time,
			"impact":   ev.Impact,
			"title":    ev.Title,
			"actual":   ev.Actual,
			"forecast": ev.Forecast,
			"previous": ev.Previous,
			"url":      ev.URL,
		})
	}
	return records, nil
}
