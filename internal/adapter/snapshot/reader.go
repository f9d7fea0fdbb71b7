package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/ffnews/calendar-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Meta is the stored snapshot metadata overlaid with the live file-system
// view at read time. The cache_* fields always reflect the file as it was
// when Read was called, superseding anything persisted.
type Meta struct {
	GeneratedAtUTC string  `json:"generated_at_utc"`
	Source         string  `json:"source"`
	Count          int     `json:"count"`
	Note           string  `json:"note,omitempty"`
	Error          string  `json:"error,omitempty"`
	CacheFile      string  `json:"cache_file"`
	CacheExists    bool    `json:"cache_exists"`
	CacheMtimeUTC  *string `json:"cache_mtime_utc"`
	CacheAgeSec    *int64  `json:"cache_age_sec"`
}

// Document is the consumer-side view of a snapshot. Events pass through as
// raw records rather than typed events so that legacy snapshots with odd
// field types (e.g. string epochs) still serve.
type Document struct {
	Meta   Meta               `json:"meta"`
	Events []domain.RawRecord `json:"events"`
}

// FileStat is a point-in-time view of the snapshot file.
type FileStat struct {
	Exists   bool    `json:"exists"`
	Bytes    int64   `json:"bytes"`
	MtimeUTC *string `json:"mtime_utc"`
	AgeSec   *int64  `json:"age_sec"`
}

// Freshness is FileStat plus the staleness verdict against the deployment's
// refresh cadence.
type Freshness struct {
	FileStat
	RefreshSeconds    int64 `json:"refresh_seconds"`
	StaleGraceSeconds int64 `json:"stale_grace_seconds"`
	Stale             bool  `json:"stale"`
}

// Reader reads the published snapshot defensively: it never fails outward.
// Missing or unparsable files degrade to an empty document carrying the read
// error in meta; legacy shapes (bare arrays, missing meta) are repaired.
// Every call re-reads from disk — there is no in-memory cache, so staleness
// is always computed against the true file-system state.
type Reader struct {
	Path    string
	Source  string // display name used when synthesizing meta.source
	Refresh time.Duration
	Grace   time.Duration
	Clock   clockwork.Clock
}

// NewReader creates a Reader over the published snapshot at path.
func NewReader(path, source string, refresh, grace time.Duration) *Reader {
	return &Reader{
		Path:    path,
		Source:  source,
		Refresh: refresh,
		Grace:   grace,
		Clock:   clockwork.NewRealClock(),
	}
}

// Stat inspects the snapshot file without reading its contents.
func (r *Reader) Stat() FileStat {
	info, err := os.Stat(r.Path)
	if err != nil {
		return FileStat{}
	}

	mtime := domain.FormatUTCISO(info.ModTime())
	age := int64(r.Clock.Now().Sub(info.ModTime()) / time.Second)
	if age < 0 {
		age = 0
	}
	return FileStat{Exists: true, Bytes: info.Size(), MtimeUTC: &mtime, AgeSec: &age}
}

// Freshness computes the staleness verdict: stale when the file is missing
// or older than refresh + grace.
func (r *Reader) Freshness() Freshness {
	st := r.Stat()
	staleAfter := int64((r.Refresh + r.Grace) / time.Second)
	stale := !st.Exists || st.AgeSec == nil || *st.AgeSec > staleAfter

	return Freshness{
		FileStat:          st,
		RefreshSeconds:    int64(r.Refresh / time.Second),
		StaleGraceSeconds: int64(r.Grace / time.Second),
		Stale:             stale,
	}
}

// Read returns the snapshot document, repaired as needed. The second return
// reports whether the file was readable and parseable; even when it is
// false the returned document is well-formed, with meta.error set and an
// empty event list, so downstream projections keep their contract shape.
func (r *Reader) Read() (Document, bool) {
	st := r.Stat()

	data, err := os.ReadFile(r.Path)
	if err != nil {
		return r.emptyDocument(st, err.Error()), false
	}

	// Legacy shape: the cache was occasionally written as a bare array of
	// events. Wrap it and note the repair.
	if isJSONArray(data) {
		var events []domain.RawRecord
		if err := json.Unmarshal(data, &events); err != nil {
			return r.emptyDocument(st, err.Error()), false
		}
		doc := Document{
			Meta: Meta{
				GeneratedAtUTC: domain.FormatUTCISO(r.Clock.Now()),
				Source:         r.Source,
				Count:          len(events),
				Note:           "cache_was_array_wrapped",
			},
			Events: events,
		}
		r.overlayStat(&doc.Meta, st)
		return doc, true
	}

	var stored struct {
		Meta *struct {
			GeneratedAtUTC string `json:"generated_at_utc"`
			Source         string `json:"source"`
			Count          *int   `json:"count"`
		} `json:"meta"`
		Events []domain.RawRecord `json:"events"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return r.emptyDocument(st, err.Error()), false
	}

	doc := Document{Events: stored.Events}
	if doc.Events == nil {
		doc.Events = []domain.RawRecord{}
	}

	// Synthesize whatever meta pieces the stored document lacks.
	if stored.Meta != nil {
		doc.Meta.GeneratedAtUTC = stored.Meta.GeneratedAtUTC
		doc.Meta.Source = stored.Meta.Source
		if stored.Meta.Count != nil {
			doc.Meta.Count = *stored.Meta.Count
		} else {
			doc.Meta.Count = len(doc.Events)
		}
	} else {
		doc.Meta.Count = len(doc.Events)
	}
	if doc.Meta.GeneratedAtUTC == "" {
		doc.Meta.GeneratedAtUTC = domain.FormatUTCISO(r.Clock.Now())
	}
	if doc.Meta.Source == "" {
		doc.Meta.Source = r.Source
	}

	r.overlayStat(&doc.Meta, st)
	return doc, true
}

// emptyDocument synthesizes the contract shape for unreadable snapshots.
func (r *Reader) emptyDocument(st FileStat, readErr string) Document {
	doc := Document{
		Meta: Meta{
			GeneratedAtUTC: domain.FormatUTCISO(r.Clock.Now()),
			Source:         r.Source,
			Count:          0,
			Error:          readErr,
		},
		Events: []domain.RawRecord{},
	}
	r.overlayStat(&doc.Meta, st)
	return doc
}

func (r *Reader) overlayStat(m *Meta, st FileStat) {
	m.CacheFile = r.Path
	m.CacheExists = st.Exists
	m.CacheMtimeUTC = st.MtimeUTC
	m.CacheAgeSec = st.AgeSec
}

func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
