package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
)

// genderParam reads the gender query parameter. An absent optional
// parameter gives "".
func genderParam(q url.Values, required bool) (model.Gender, error) {
	raw := strings.TrimSpace(q.Get("gender"))
	if raw == "" {
		if required {
			return "", errors.New("missing gender")
		}
		return "", nil
	}
	g, err := model.ParseGender(raw)
	if err != nil {
		return "", err
	}
	return g, nil
}

// intParam reads an integer query parameter, def when absent.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

// categoryParam reads and upper-cases the category code.
func categoryParam(q url.Values) string {
	return strings.ToUpper(strings.TrimSpace(q.Get("category")))
}

// timeParam reads a finish time given as seconds or H:MM:SS.
func timeParam(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("time"))
	if raw == "" {
		return 0, errors.New("missing time")
	}
	secs, err := timefmt.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return secs, nil
}
