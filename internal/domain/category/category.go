// Package category maps a runner's age and gender to the race's age category
// codes. The same tables validate the categories stored in the dataset.
package category

import (
	"errors"
	"fmt"

	"github.com/okian/halfpace/internal/domain/model"
)

// Age limits accepted by the race.
const (
	MinAge = 18
	MaxAge = 99
)

// ErrAgeOutOfRange is returned by CategorizeStrict for ages no band covers.
var ErrAgeOutOfRange = errors.New("age outside category bands")

// Band is an inclusive age range mapped to a category code.
type Band struct {
	MinAge int    `json:"min_age"`
	MaxAge int    `json:"max_age"`
	Code   string `json:"code"`
}

// Contains reports whether age falls inside the band.
func (b Band) Contains(age int) bool {
	return age >= b.MinAge && age <= b.MaxAge
}

// Bands are ordered youngest first, contiguous and non-overlapping.
var (
	maleBands = []Band{
		{18, 29, "M20"},
		{30, 39, "M30"},
		{40, 49, "M40"},
		{50, 59, "M50"},
		{60, 69, "M60"},
		{70, 79, "M70"},
		{80, 99, "M80"},
	}
	femaleBands = []Band{
		{18, 29, "K20"},
		{30, 39, "K30"},
		{40, 49, "K40"},
		{50, 59, "K50"},
		{60, 69, "K60"},
		{70, 99, "K70"},
	}
)

// Bands returns a copy of the band table for gender, nil for unknown genders.
func Bands(g model.Gender) []Band {
	var src []Band
	switch g {
	case model.Male:
		src = maleBands
	case model.Female:
		src = femaleBands
	default:
		return nil
	}
	out := make([]Band, len(src))
	copy(out, src)
	return out
}

func table(g model.Gender) []Band {
	if g == model.Female {
		return femaleBands
	}
	return maleBands
}

// Categorize returns the category code for age and gender. Ages outside the
// table fall back to the youngest band of the gender. Any gender other than
// Female is treated as Male.
func Categorize(age int, g model.Gender) string {
	t := table(g)
	for _, b := range t {
		if b.Contains(age) {
			return b.Code
		}
	}
	return t[0].Code
}

// CategorizeStrict is Categorize without the fallback.
func CategorizeStrict(age int, g model.Gender) (string, error) {
	if !g.Valid() {
		return "", fmt.Errorf("categorize: %w", model.ErrUnknownGender)
	}
	for _, b := range table(g) {
		if b.Contains(age) {
			return b.Code, nil
		}
	}
	return "", fmt.Errorf("categorize age %d: %w", age, ErrAgeOutOfRange)
}

// Valid reports whether code is a category of gender's table.
func Valid(code string, g model.Gender) bool {
	if !g.Valid() {
		return false
	}
	for _, b := range table(g) {
		if b.Code == code {
			return true
		}
	}
	return false
}

// Lookup returns the band for a code, searching both genders.
func Lookup(code string) (Band, model.Gender, bool) {
	for _, g := range []model.Gender{model.Male, model.Female} {
		for _, b := range table(g) {
			if b.Code == code {
				return b, g, true
			}
		}
	}
	return Band{}, "", false
}
