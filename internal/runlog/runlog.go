// Package runlog appends one outcome line per ingestion run to an
// append-only log and scans a bounded tail of it for the most recent
// success and failure markers. The log is never truncated or rotated here;
// rotation is an operational concern outside the process.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	okMarker  = " ingest_ok "
	errMarker = " ingest_error "

	// Tail scan bounds: callers may tune how far back to look, clamped to
	// keep a misconfigured value from scanning an unbounded file.
	DefaultTailLines = 300
	minTailLines     = 10
	maxTailLines     = 2000
)

// Logger appends run outcomes to the log at Path.
type Logger struct {
	Path string
}

// NewLogger creates a Logger for the given log path.
func NewLogger(path string) *Logger {
	return &Logger{Path: path}
}

// Success appends a "<ts> ingest_ok count=<N>" line.
func (l *Logger) Success(ts string, count int) error {
	return l.append(fmt.Sprintf("%s ingest_ok count=%d", ts, count))
}

// Failure appends a "<ts> ingest_error err=<message>" line.
func (l *Logger) Failure(ts string, runErr error) error {
	return l.append(fmt.Sprintf("%s ingest_error err=%s", ts, runErr))
}

func (l *Logger) append(line string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

// TailSummary is the result of scanning the newest part of the run log.
type TailSummary struct {
	LastOkUTC    string
	LastErrorUTC string
	LastErrorMsg string
}

// ScanTail reads the run log and scans its last maxLines lines, newest
// first, for the most recent success and failure markers. maxLines is
// clamped to [10, 2000]; non-positive values fall back to the default.
func ScanTail(path string, maxLines int) (TailSummary, error) {
	maxLines = clampLines(maxLines)

	data, err := os.ReadFile(path)
	if err != nil {
		return TailSummary{}, fmt.Errorf("read run log: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	var summary TailSummary
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]

		if summary.LastOkUTC == "" && strings.Contains(line, okMarker) {
			summary.LastOkUTC = firstField(line)
		}
		if summary.LastErrorUTC == "" && strings.Contains(line, errMarker) {
			summary.LastErrorUTC = firstField(line)
			if idx := strings.Index(line, "err="); idx >= 0 {
				summary.LastErrorMsg = strings.TrimSpace(line[idx+len("err="):])
			}
		}
		if summary.LastOkUTC != "" && summary.LastErrorUTC != "" {
			break
		}
	}
	return summary, nil
}

func clampLines(n int) int {
	if n <= 0 {
		n = DefaultTailLines
	}
	if n < minTailLines {
		return minTailLines
	}
	if n > maxTailLines {
		return maxTailLines
	}
	return n
}

func firstField(line string) string {
	if idx := strings.IndexByte(line, ' '); idx > 0 {
		return line[:idx]
	}
	return line
}
