// Package repository loads the historical results dataset.
package repository

import (
	"context"
	"sort"

	"github.com/okian/halfpace/internal/domain/dataset"
)

// Drop reasons reported by loaders.
const (
	DropMissingYear = "missing_year"
	DropBadGender   = "bad_gender"
	DropBadFinish   = "bad_finish"
	DropBadCategory = "bad_category"
)

// Report describes what a load kept and dropped.
type Report struct {
	Rows    int            // data rows read, header excluded
	Kept    int            // rows that made it into the dataset
	Dropped map[string]int // dropped rows by reason
	Columns []string       // header as read
}

// DroppedTotal returns the number of dropped rows.
func (r Report) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Reasons returns the drop reasons in a stable order.
func (r Report) Reasons() []string {
	out := make([]string, 0, len(r.Dropped))
	for k := range r.Dropped {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Source produces the immutable dataset served by the process.
type Source interface {
	// Load reads and validates every record. Malformed rows are dropped and
	// counted in the Report rather than failing the load.
	Load(ctx context.Context) (*dataset.Dataset, Report, error)
}
