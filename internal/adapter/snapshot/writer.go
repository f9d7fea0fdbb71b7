package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ffnews/calendar-service/internal/domain"
	"github.com/google/uuid"
)

// Writer publishes snapshot documents atomically. The full serialized
// document is written to a uniquely named sibling temp file and then renamed
// onto the canonical path in a single step, so a concurrent reader observes
// either the complete previous document or the complete new one — never a
// truncated body. The file is never truncated in place.
type Writer struct {
	Path string
}

// NewWriter creates a Writer publishing to path.
func NewWriter(path string) *Writer {
	return &Writer{Path: path}
}

// Publish serializes the document and atomically replaces the published
// snapshot. A failure at any step leaves the previous snapshot untouched.
func (w *Writer) Publish(doc domain.CacheDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	// Temp file must live on the same filesystem as the target or the
	// rename stops being atomic.
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString()+".json")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp, w.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}
