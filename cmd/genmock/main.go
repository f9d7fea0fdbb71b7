// Command genmock generates mock feed fixtures for the test suites and for
// running the pipeline against a local file server: the same sample week is
// written as the JSON feed payload, the XML feed payload, and the snapshot
// the pipeline would publish from it. Fixtures go through the actual domain
// package so they track real canonicalization behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir testdata/mock
package main

import (
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ffnews/calendar-service/internal/domain"
)

// generatedAt pins meta.generated_at_utc for reproducible fixtures.
var generatedAt = time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)

// sampleWeek covers the shapes the feeds actually mix: ISO datetimes with
// offsets, split date/time pairs, all-day tokens, and a record that must be
// dropped for lacking a resolvable time.
var sampleWeek = []domain.RawRecord{
	{"country": "USD", "title": "Non-Farm Employment Change", "date": "2024-03-08T08:30:00-05:00", "impact": "High", "forecast": "198K", "previous": "229K"},
	{"country": "USD", "title": "Unemployment Rate", "date": "2024-03-08T08:30:00-05:00", "impact": "High", "forecast": "3.7%", "previous": "3.7%"},
	{"country": "EUR", "title": "Main Refinancing Rate", "date": "2024-03-07T08:15:00-05:00", "impact": "High", "forecast": "4.50%", "previous": "4.50%"},
	{"country": "GBP", "title": "Construction PMI", "date": "2024-03-05", "time": "4:30am", "impact": "Medium", "previous": "48.8"},
	{"country": "JPY", "title": "Bank Holiday", "date": "2024-03-06", "time": "all-day", "impact": "Holiday"},
	{"country": "CAD", "title": "Overnight Rate", "date": "03/06/2024", "time": "9:45am", "impact": "High", "forecast": "5.00%"},
	{"country": "USD", "title": "Mystery Release", "impact": "Low"}, // no time: dropped
}

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
	XMLName xml.Name   `xml:"weeklyevents"`
	Events  []xmlEvent `xml:"event"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory for generated fixtures")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	zone, err := time.LoadLocation(domain.DefaultSourceZone)
	if err != nil {
		return err
	}

	// JSON feed payload: the raw records verbatim.
	if err := writeJSON(filepath.Join(*outDir, "feed_thisweek.json"), sampleWeek); err != nil {
		return err
	}

	// XML feed payload: the same week in the fallback wire format. ISO
	// datetimes are split back into the date/time fields the XML feed uses.
	weekly := xmlWeekly{}
	for _, raw := range sampleWeek {
		weekly.Events = append(weekly.Events, toXMLEvent(raw, zone))
	}
	xmlData, err := xml.MarshalIndent(weekly, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outDir, "feed_thisweek.xml"), append(xmlData, '\n'), 0o644); err != nil {
		return err
	}

	// Expected snapshot: what the pipeline publishes from this week.
	events := make([]domain.CalendarEvent, 0, len(sampleWeek))
	for _, raw := range sampleWeek {
		event, err := domain.Canonicalize(raw, zone)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Epoch < events[j].Epoch })

	doc := domain.CacheDocument{
		Meta: domain.Meta{
			GeneratedAtUTC: domain.FormatUTCISO(generatedAt),
			Source:         "ForexFactory calendar",
			Count:          len(events),
		},
		Events: events,
	}
	if err := writeJSON(filepath.Join(*outDir, "snapshot_expected.json"), doc); err != nil {
		return err
	}

	fmt.Printf("wrote %d fixtures to %s (%d events, %d dropped)\n",
		3, *outDir, len(events), len(sampleWeek)-len(events))
	return nil
}

func toXMLEvent(raw domain.RawRecord, zone *time.Location) xmlEvent {
	ev := xmlEvent{
		Country:  str(raw["country"]),
		Date:     str(raw["date"]),
		Time:     str(raw["time"]),
		Impact:   str(raw["impact"]),
		Title:    str(raw["title"]),
		Actual:   str(raw["actual"]),
		Forecast: str(raw["forecast"]),
		Previous: str(raw["previous"]),
		URL:      str(raw["url"]),
	}

	// The XML feed always splits date and time.
	if t, err := time.Parse(time.RFC3339, ev.Date); err == nil {
		local := t.In(zone)
		ev.Date = local.Format("01-02-2006")
		ev.Time = local.Format("3:04pm")
	}
	return ev
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
