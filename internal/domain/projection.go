package domain

import (
	"sort"
	"strings"
	"time"
)

// ImpactForEA rebuckets the five-level impact enum into the three levels the
// trading client understands. The mapping is deliberately lossy and
// asymmetric: holidays escalate to High because the client must block
// trading around them, while unknown degrades to Low so an unclassified
// event never halts the client. Matching is case-insensitive.
func ImpactForEA(impact string) string {
	switch strings.ToLower(strings.TrimSpace(impact)) {
	case "high":
		return "High"
	case "medium":
		return "Medium"
	case "low":
		return "Low"
	case "holiday":
		return "High"
	}
	return "Low"
}

// ProjectMinimal flattens stored snapshot events into the minimal array the
// trading client consumes. Events without a currency, title, or resolvable
// epoch are skipped. Epoch is accepted as a number or numeric string, and
// derived from datetime_utc as a last resort. Output is ascending by epoch.
func ProjectMinimal(events []RawRecord) []EAEvent {
	out := make([]EAEvent, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		currency := strings.TrimSpace(stringValue(e["currency"]))
		title := firstString(e, "title", "event")

		epoch, ok := numericValue(e["epoch"])
		if !ok {
			var derived int64
			derived, ok = epochFromISO(stringValue(e["datetime_utc"]))
			epoch = float64(derived)
		}

		if currency == "" || title == "" || !ok {
			continue
		}

		out = append(out, EAEvent{
			Currency: currency,
			Impact:   ImpactForEA(stringValue(e["impact"])),
			Title:    title,
			Epoch:    int64(epoch),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })
	return out
}

// epochFromISO converts an ISO-8601 string to epoch seconds.
func epochFromISO(iso string) (int64, bool) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}
