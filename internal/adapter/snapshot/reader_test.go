package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = "ForexFactory calendar"

// newTestReader wires a reader over path with a frozen clock positioned
// relative to the file's mtime, which is pinned via os.Chtimes.
func newTestReader(t *testing.T, path string, age time.Duration) *Reader {
	t.Helper()

	mtime := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if _, err := os.Stat(path); err == nil {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	r := NewReader(path, testSource, 300*time.Second, 60*time.Second)
	r.Clock = clockwork.NewFakeClockAt(mtime.Add(age))
	return r
}

func writeFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "latest.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReader_Read(t *testing.T) {
	t.Run("well-formed snapshot passes through with stat overlay", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{
			"meta":{"generated_at_utc":"2024-03-05T11:58:00Z","source":"ForexFactory calendar","count":1},
			"events":[{"id":"USD-1-x","currency":"USD","title":"x","epoch":1,"datetime_utc":"1970-01-01T00:00:01Z","impact":"low"}]
		}`)
		r := newTestReader(t, path, 10*time.Second)

		doc, ok := r.Read()
		require.True(t, ok)
		assert.Equal(t, "2024-03-05T11:58:00Z", doc.Meta.GeneratedAtUTC)
		assert.Equal(t, 1, doc.Meta.Count)
		assert.Len(t, doc.Events, 1)

		assert.Equal(t, path, doc.Meta.CacheFile)
		assert.True(t, doc.Meta.CacheExists)
		require.NotNil(t, doc.Meta.CacheAgeSec)
		assert.Equal(t, int64(10), *doc.Meta.CacheAgeSec)
		require.NotNil(t, doc.Meta.CacheMtimeUTC)
		assert.Equal(t, "2024-03-05T12:00:00Z", *doc.Meta.CacheMtimeUTC)
	})

	t.Run("missing file degrades to empty error document", func(t *testing.T) {
		r := newTestReader(t, filepath.Join(t.TempDir(), "nope.json"), 0)

		doc, ok := r.Read()
		assert.False(t, ok)
		assert.NotEmpty(t, doc.Meta.Error)
		assert.Equal(t, testSource, doc.Meta.Source)
		assert.Equal(t, 0, doc.Meta.Count)
		assert.NotNil(t, doc.Events)
		assert.Empty(t, doc.Events)
		assert.False(t, doc.Meta.CacheExists)
		assert.Nil(t, doc.Meta.CacheAgeSec)
		assert.Nil(t, doc.Meta.CacheMtimeUTC)
	})

	t.Run("corrupt JSON degrades to empty error document", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{"meta":{"count":`)
		r := newTestReader(t, path, 5*time.Second)

		doc, ok := r.Read()
		assert.False(t, ok)
		assert.NotEmpty(t, doc.Meta.Error)
		assert.True(t, doc.Meta.CacheExists, "stat overlay still reflects the real file")
	})

	t.Run("legacy bare array is wrapped", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `[
			{"currency":"USD","title":"a","epoch":1},
			{"currency":"EUR","title":"b","epoch":2},
			{"currency":"JPY","title":"c","epoch":3}
		]`)
		r := newTestReader(t, path, 5*time.Second)

		doc, ok := r.Read()
		require.True(t, ok)
		assert.Equal(t, "cache_was_array_wrapped", doc.Meta.Note)
		assert.Equal(t, 3, doc.Meta.Count)
		assert.Len(t, doc.Events, 3)
		assert.Equal(t, testSource, doc.Meta.Source)
	})

	t.Run("missing meta pieces are synthesized", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{"events":[{"currency":"USD","title":"a","epoch":1}]}`)
		r := newTestReader(t, path, 5*time.Second)

		doc, ok := r.Read()
		require.True(t, ok)
		assert.NotEmpty(t, doc.Meta.GeneratedAtUTC, "generated_at_utc defaults to now")
		assert.Equal(t, testSource, doc.Meta.Source)
		assert.Equal(t, 1, doc.Meta.Count, "count defaults to events length")
	})

	t.Run("missing events synthesized as empty list", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{"meta":{"source":"x","count":9}}`)
		r := newTestReader(t, path, 5*time.Second)

		doc, ok := r.Read()
		require.True(t, ok)
		assert.NotNil(t, doc.Events)
		assert.Empty(t, doc.Events)
		assert.Equal(t, 9, doc.Meta.Count, "stored count is preserved even when wrong")
	})

	t.Run("stored stale cache_* values are superseded", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{
			"meta":{"source":"x","count":0,"cache_file":"/old/path.json","cache_exists":false,"cache_age_sec":99999},
			"events":[]
		}`)
		r := newTestReader(t, path, 7*time.Second)

		doc, ok := r.Read()
		require.True(t, ok)
		assert.Equal(t, path, doc.Meta.CacheFile)
		assert.True(t, doc.Meta.CacheExists)
		require.NotNil(t, doc.Meta.CacheAgeSec)
		assert.Equal(t, int64(7), *doc.Meta.CacheAgeSec)
	})
}

func TestReader_Freshness(t *testing.T) {
	t.Run("boundary at refresh plus grace", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, `{}`)

		tests := []struct {
			name  string
			age   time.Duration
			stale bool
		}{
			{"fresh well inside", 10 * time.Second, false},
			{"fresh just under", 359 * time.Second, false},
			{"fresh at the boundary", 360 * time.Second, false},
			{"stale just past", 361 * time.Second, true},
			{"stale far past", 2 * time.Hour, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := newTestReader(t, path, tt.age)
				fresh := r.Freshness()
				assert.Equal(t, tt.stale, fresh.Stale)
				assert.Equal(t, int64(300), fresh.RefreshSeconds)
				assert.Equal(t, int64(60), fresh.StaleGraceSeconds)
			})
		}
	})

	t.Run("missing file is stale", func(t *testing.T) {
		r := newTestReader(t, filepath.Join(t.TempDir(), "nope.json"), 0)
		fresh := r.Freshness()
		assert.True(t, fresh.Stale)
		assert.False(t, fresh.Exists)
	})

	t.Run("future mtime clamps age to zero", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), `{}`)
		r := newTestReader(t, path, -30*time.Second)
		st := r.Stat()
		require.NotNil(t, st.AgeSec)
		assert.Equal(t, int64(0), *st.AgeSec)
	})
}
