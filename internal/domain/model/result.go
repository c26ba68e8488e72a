// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGender is returned when a gender code cannot be parsed.
var ErrUnknownGender = errors.New("unknown gender")

// Gender is the runner's gender as coded in the results dataset.
type Gender string

// Gender codes. Female uses the dataset's "K" prefix.
const (
	Male   Gender = "M"
	Female Gender = "K"
)

// Valid reports whether g is one of the known codes.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// String returns the single-letter code.
func (g Gender) String() string { return string(g) }

// ParseGender parses a gender code, case-insensitive, surrounding space ignored.
func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M":
		return Male, nil
	case "K":
		return Female, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGender, s)
	}
}

// ResultRecord is one finisher of one race edition.
type ResultRecord struct {
	Year          int    // event edition
	Gender        Gender // M or K
	AgeCategory   string // e.g. "M30", "K70"
	FinishSeconds int    // total race time, always > 0
	Country       string // e.g. "POL"
	FullName      string // empty when unknown

	// Split5kSeconds is meaningful only when HasSplit is true.
	Split5kSeconds int
	HasSplit       bool
}

// Split returns the 5 km split and whether it was recorded.
func (r ResultRecord) Split() (int, bool) {
	return r.Split5kSeconds, r.HasSplit
}
