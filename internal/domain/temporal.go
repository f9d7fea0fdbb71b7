package domain

import (
	"strings"
	"time"
)

// DefaultSourceZone is the IANA zone the provider uses for split date/time
// fields that carry no offset of their own. ForexFactory publishes naive
// local times in US Eastern time.
const DefaultSourceZone = "America/New_York"

// millisecondThreshold separates second-resolution from millisecond-resolution
// epoch values. Anything above it is assumed to be milliseconds.
const millisecondThreshold = 1e12

// epochAliases are the field names under which feeds have been observed to
// carry an explicit epoch value, in lookup order.
var epochAliases = []string{"epoch", "timestamp", "time_stamp", "timeStamp", "unixtime", "unix"}

// dateAliases and timeAliases cover the split date/time field spellings seen
// across feed generations.
var (
	dateAliases = []string{"date", "Date", "datetime", "datetime_utc"}
	timeAliases = []string{"time", "Time"}
)

// dateTimeLayouts is the candidate grid for split date/time pairs: common
// regional date orderings crossed with 12-hour, bare-hour, and 24-hour time
// forms. First successful parse wins.
var dateTimeLayouts = []string{
	"2006-01-02 3:04pm",
	"2006-01-02 3pm",
	"2006-01-02 15:04",

	"01-02-2006 3:04pm",
	"01-02-2006 3pm",
	"01-02-2006 15:04",

	"01/02/2006 3:04pm",
	"01/02/2006 3pm",
	"01/02/2006 15:04",
}

// FormatUTCISO renders a time as ISO-8601 UTC with seconds precision and no
// milliseconds, the timestamp format used throughout the published contract.
func FormatUTCISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ResolveTime derives a UTC instant from a raw record, trying strategies in
// priority order:
//
//  1. an explicit epoch-like field (millisecond values are floored to seconds)
//  2. a combined ISO date-time string (embedded offset respected)
//  3. split date + time strings interpreted in loc, the provider's zone
//
// The third argument reports whether any strategy succeeded; callers must
// reject the record when it is false.
func ResolveTime(raw RawRecord, loc *time.Location) (int64, string, bool) {
	if epoch, ok := parseEpochAny(raw); ok {
		return epoch, FormatUTCISO(time.Unix(epoch, 0)), true
	}

	dateStr := firstString(raw, dateAliases...)
	if strings.Contains(dateStr, "T") {
		if epoch, iso, ok := parseISOToUTC(dateStr, loc); ok {
			return epoch, iso, true
		}
		return 0, "", false
	}

	return parseDateTimeToUTC(dateStr, firstString(raw, timeAliases...), loc)
}

// parseEpochAny scans the known epoch alias fields for a positive integer
// value, accepting JSON numbers and digit strings. Values above the
// millisecond threshold are converted to seconds.
func parseEpochAny(raw RawRecord) (int64, bool) {
	for _, key := range epochAliases {
		v, found := raw[key]
		if !found {
			continue
		}
		n, ok := numericValue(v)
		if !ok || n <= 0 {
			continue
		}
		if n > millisecondThreshold {
			n = n / 1000
		}
		return int64(n), true
	}
	return 0, false
}

// parseISOToUTC parses a combined ISO date-time string. Strings with an
// explicit offset are honored as-is; offset-less strings are interpreted in
// the provider's zone before conversion to UTC.
func parseISOToUTC(s string, loc *time.Location) (int64, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), FormatUTCISO(t), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t.Unix(), FormatUTCISO(t), true
	}
	return 0, "", false
}

// parseDateTimeToUTC combines split date and time strings using the candidate
// layout grid, interpreting the pair in the provider's zone. Tokens meaning
// "no specific time" are normalized to midnight before parsing.
func parseDateTimeToUTC(dateStr, timeStr string, loc *time.Location) (int64, string, bool) {
	d := strings.TrimSpace(dateStr)
	t := strings.TrimSpace(timeStr)
	if d == "" {
		return 0, "", false
	}

	if isAllDayToken(t) {
		t = "12:00am"
	}
	t = strings.ToLower(t)

	combined := d + " " + t
	for _, layout := range dateTimeLayouts {
		parsed, err := time.ParseInLocation(layout, combined, loc)
		if err != nil {
			continue
		}
		return parsed.Unix(), FormatUTCISO(parsed), true
	}
	return 0, "", false
}

// isAllDayToken reports whether a time string means "no specific time".
func isAllDayToken(t string) bool {
	compact := strings.ReplaceAll(strings.ToLower(t), " ", "")
	switch compact {
	case "", "all-day", "allday", "tentative", "n/a":
		return true
	}
	return false
}
