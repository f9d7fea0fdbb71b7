package domain

// Impact is the canonical five-level impact classification.
type Impact string

const (
	ImpactLow     Impact = "low"
	ImpactMedium  Impact = "medium"
	ImpactHigh    Impact = "high"
	ImpactHoliday Impact = "holiday"
	ImpactUnknown Impact = "unknown"
)

// RawRecord is one provider record before canonicalization: a loose bag of
// fields as decoded from the JSON feed or assembled from an XML <event>
// element. Field names vary by feed generation, so lookups go through
// ordered alias lists rather than fixed keys.
type RawRecord map[string]any

// CalendarEvent is the canonical representation of one calendar entry.
// Events admitted into a snapshot always carry a currency, title, UTC
// datetime, and epoch; the remaining fields are optional and nil when the
// provider sent nothing (empty strings are coerced to nil).
type CalendarEvent struct {
	ID          string  `json:"id"`
	DatetimeUTC string  `json:"datetime_utc"`
	Epoch       int64   `json:"epoch"`
	Currency    string  `json:"currency"`
	Impact      Impact  `json:"impact"`
	Title       string  `json:"title"`
	Actual      *string `json:"actual"`
	Forecast    *string `json:"forecast"`
	Previous    *string `json:"previous"`
	URL         *string `json:"url"`
}

// Meta describes one published snapshot.
type Meta struct {
	GeneratedAtUTC string `json:"generated_at_utc"`
	Source         string `json:"source"`
	Count          int    `json:"count"`
}

// CacheDocument is the published snapshot contract: metadata plus events
// sorted ascending by epoch. It is built fresh on every ingestion run and
// replaced wholesale; consumers never see a partially written document.
type CacheDocument struct {
	Meta   Meta            `json:"meta"`
	Events []CalendarEvent `json:"events"`
}

// EAEvent is the minimal flattened projection consumed by the trading
// client. Impact is rebucketed to three levels (High, Medium, Low).
type EAEvent struct {
	Currency string `json:"currency"`
	Impact   string `json:"impact"`
	Title    string `json:"title"`
	Epoch    int64  `json:"epoch"`
}
