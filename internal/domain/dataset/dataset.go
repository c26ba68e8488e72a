// Package dataset holds the immutable, in-memory snapshot of historical race
// results that every statistics query reads from.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/types"
)

// ErrInvalidRecord is returned by New when a record violates the schema.
var ErrInvalidRecord = errors.New("invalid result record")

// Dataset is safe for concurrent reads. There are no mutating methods.
type Dataset struct {
	records []model.ResultRecord
	version string
}

// New validates records and builds a Dataset from a private copy of them.
func New(records []model.ResultRecord) (*Dataset, error) {
	rows := make([]model.ResultRecord, len(records))
	copy(rows, records)

	for i, r := range rows {
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return &Dataset{records: rows, version: fingerprint(rows)}, nil
}

// MustNew is New that panics on invalid input. Intended for tests and fixtures.
func MustNew(records []model.ResultRecord) *Dataset {
	ds, err := New(records)
	if err != nil {
		panic(err)
	}
	return ds
}

func validate(r model.ResultRecord) error {
	switch {
	case r.FinishSeconds <= 0:
		return fmt.Errorf("%w: finish time must be positive", ErrInvalidRecord)
	case !r.Gender.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidRecord, model.ErrUnknownGender)
	case !category.Valid(r.AgeCategory, r.Gender):
		return fmt.Errorf("%w: category %q not in %s table", ErrInvalidRecord, r.AgeCategory, r.Gender)
	case r.HasSplit && r.Split5kSeconds < 0:
		return fmt.Errorf("%w: negative 5 km split", ErrInvalidRecord)
	}
	return nil
}

// fingerprint hashes the row contents in order, so equal inputs give equal versions.
func fingerprint(rows []model.ResultRecord) string {
	h := xxhash.New()
	var buf [8]byte
	putInt := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}
	putStr := func(s string) {
		putInt(len(s))
		_, _ = h.WriteString(s)
	}
	for _, r := range rows {
		putInt(r.Year)
		putStr(string(r.Gender))
		putStr(r.AgeCategory)
		putInt(r.FinishSeconds)
		if r.HasSplit {
			putInt(r.Split5kSeconds)
		} else {
			putInt(-1)
		}
		putStr(r.Country)
		putStr(r.FullName)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// At returns the i-th record in original order.
func (d *Dataset) At(i int) model.ResultRecord { return d.records[i] }

// Each calls fn for every record in original order until fn returns false.
func (d *Dataset) Each(fn func(i int, r model.ResultRecord) bool) {
	for i, r := range d.records {
		if !fn(i, r) {
			return
		}
	}
}

// Version identifies the dataset contents; used as a cache key component.
func (d *Dataset) Version() string { return d.version }

// Years returns the distinct editions, ascending.
func (d *Dataset) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range d.records {
		seen[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Summary describes the dataset size per edition.
func (d *Dataset) Summary() types.DatasetSummary {
	byYear := make(map[int]int)
	for _, r := range d.records {
		byYear[r.Year]++
	}
	return types.DatasetSummary{
		Version:       d.version,
		TotalRecords:  len(d.records),
		Years:         d.Years(),
		RecordsByYear: byYear,
	}
}
