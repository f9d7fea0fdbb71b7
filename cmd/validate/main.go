// Command validate checks a published snapshot against the contract
// invariants: document shape, meta.count consistency, required-field
// admission, ascending epoch order, deterministic IDs, and agreement
// between datetime_utc and epoch.
//
// Usage:
//
//	go run ./cmd/validate -snapshot /opt/ff-news/cache/latest.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ffnews/calendar-service/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "", "path to a published snapshot JSON file")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*snapshotPath))
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		return 1
	}

	var doc domain.CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "parse snapshot: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkMeta(doc),
		checkAdmission(doc),
		checkOrdering(doc),
		checkIdentity(doc),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Printf("%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("all %d phases passed (%d events)\n", len(phases), len(doc.Events))
	return 0
}

func checkMeta(doc domain.CacheDocument) *phase {
	p := &phase{name: "meta"}

	if doc.Meta.Count != len(doc.Events) {
		p.errorf("meta.count=%d but events has %d entries", doc.Meta.Count, len(doc.Events))
	}
	if doc.Meta.Source == "" {
		p.errorf("meta.source is empty")
	}
	if _, err := time.Parse(time.RFC3339, doc.Meta.GeneratedAtUTC); err != nil {
		p.errorf("meta.generated_at_utc %q is not ISO-8601: %v", doc.Meta.GeneratedAtUTC, err)
	}
	return p
}

func checkAdmission(doc domain.CacheDocument) *phase {
	p := &phase{name: "admission"}

	for i, e := range doc.Events {
		if e.Currency == "" {
			p.errorf("event[%d] %s: empty currency", i, e.ID)
		}
		if e.Title == "" {
			p.errorf("event[%d] %s: empty title", i, e.ID)
		}
		if e.Epoch == 0 {
			p.errorf("event[%d] %s: zero epoch", i, e.ID)
		}
		t, err := time.Parse(time.RFC3339, e.DatetimeUTC)
		if err != nil {
			p.errorf("event[%d] %s: bad datetime_utc %q", i, e.ID, e.DatetimeUTC)
			continue
		}
		if t.Unix() != e.Epoch {
			p.errorf("event[%d] %s: datetime_utc %s disagrees with epoch %d", i, e.ID, e.DatetimeUTC, e.Epoch)
		}
	}
	return p
}

func checkOrdering(doc domain.CacheDocument) *phase {
	p := &phase{name: "ordering"}

	for i := 1; i < len(doc.Events); i++ {
		if doc.Events[i-1].Epoch > doc.Events[i].Epoch {
			p.errorf("event[%d].epoch=%d > event[%d].epoch=%d",
				i-1, doc.Events[i-1].Epoch, i, doc.Events[i].Epoch)
		}
	}
	return p
}

func checkIdentity(doc domain.CacheDocument) *phase {
	p := &phase{name: "identity"}

	for i, e := range doc.Events {
		want := domain.MakeEventID(e.Currency, e.Epoch, e.Title)
		if e.ID != want {
			p.errorf("event[%d]: id %q does not match recomputed %q", i, e.ID, want)
		}
	}
	return p
}
