package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field alias lists for the identifying fields, in lookup order. The JSON
// feed uses "country" for the currency code; older payloads used "currency"
// or "ccy", and titles have appeared under "event" and "name".
var (
	currencyAliases = []string{"currency", "country", "ccy"}
	titleAliases    = []string{"title", "event", "name"}
	impactAliases   = []string{"impact", "Impact"}
)

var (
	// ErrMissingCurrency, ErrMissingTitle, and ErrUnresolvableTime mark
	// records that fail required-field validation. The pipeline drops such
	// records silently; the errors exist so drops can be counted and logged
	// at debug level, never surfaced per-record.
	ErrMissingCurrency  = errors.New("missing currency")
	ErrMissingTitle     = errors.New("missing title")
	ErrUnresolvableTime = errors.New("unresolvable event time")
)

var (
	nonLetterRe = regexp.MustCompile(`[^A-Z]`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Canonicalize assembles a CalendarEvent from one raw provider record,
// resolving its UTC instant with loc as the zone for offset-less fields.
// Records lacking a currency, title, or resolvable time are rejected.
func Canonicalize(raw RawRecord, loc *time.Location) (CalendarEvent, error) {
	currency := strings.ToUpper(firstString(raw, currencyAliases...))
	title := firstString(raw, titleAliases...)

	epoch, isoUTC, timeOK := ResolveTime(raw, loc)

	if currency == "" {
		return CalendarEvent{}, fmt.Errorf("canonicalize record: %w", ErrMissingCurrency)
	}
	if title == "" {
		return CalendarEvent{}, fmt.Errorf("canonicalize record: %w", ErrMissingTitle)
	}
	if !timeOK {
		return CalendarEvent{}, fmt.Errorf("canonicalize record %q: %w", title, ErrUnresolvableTime)
	}

	return CalendarEvent{
		ID:          MakeEventID(currency, epoch, title),
		DatetimeUTC: isoUTC,
		Epoch:       epoch,
		Currency:    currency,
		Impact:      NormalizeImpact(firstString(raw, impactAliases...)),
		Title:       title,
		Actual:      emptyToNull(raw["actual"]),
		Forecast:    emptyToNull(raw["forecast"]),
		Previous:    emptyToNull(raw["previous"]),
		URL:         emptyToNull(raw["url"]),
	}, nil
}

// NormalizeImpact coerces a raw impact string into the five-level enum.
// Matching is case-insensitive and exact; anything unrecognized is unknown.
func NormalizeImpact(raw string) Impact {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return ImpactHigh
	case "medium":
		return ImpactMedium
	case "low":
		return ImpactLow
	case "holiday":
		return ImpactHoliday
	}
	return ImpactUnknown
}

// MakeEventID builds the deterministic identity "<CCY>-<epoch>-<slug>".
// Re-ingesting the same underlying event always yields the same ID. Two
// distinct events that collapse to the same (currency, epoch, truncated
// title) tuple collide; the collision is accepted, not resolved.
func MakeEventID(currency string, epoch int64, title string) string {
	c := nonLetterRe.ReplaceAllString(strings.ToUpper(currency), "")
	if len(c) > 3 {
		c = c[:3]
	}
	if c == "" {
		c = "UNK"
	}

	e := "0"
	if epoch != 0 {
		e = strconv.FormatInt(epoch, 10)
	}

	return c + "-" + e + "-" + slugTitle(title)
}

// slugTitle lowercases a title and collapses non-alphanumeric runs into
// single hyphens, truncated to 60 characters.
func slugTitle(title string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "event"
	}
	return s
}

// firstString returns the first non-empty trimmed string among the given
// alias fields.
func firstString(raw RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(stringValue(raw[key])); s != "" {
			return s
		}
	}
	return ""
}

// stringValue renders a raw field value as a string. JSON numbers arrive as
// float64; integral values are rendered without a decimal point.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// numericValue extracts a numeric field value, accepting JSON numbers and
// all-digit strings.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// emptyToNull normalizes an optional raw field: absent values and empty or
// whitespace-only strings become nil.
func emptyToNull(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return nil
	}
	return &s
}
