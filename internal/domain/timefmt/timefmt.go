// Package timefmt converts race durations between integer seconds and the
// clock strings shown to runners.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is rendered for missing values.
const NotAvailable = "N/A"

// HalfMarathonKm is the official half-marathon distance.
const HalfMarathonKm = 21.0975

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// ErrMalformedClock is returned by ParseClock for unparseable input.
var ErrMalformedClock = errors.New("malformed clock time")

// FormatSeconds renders s as H:MM:SS. Hours are not padded or wrapped.
// Negative values keep their sign in front of the absolute clock.
func FormatSeconds(s int) string {
	sign, u := splitSign(s)
	h := u / secondsPerHour
	m := (u % secondsPerHour) / secondsPerMinute
	sec := u % secondsPerMinute
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, sec)
}

// splitSign returns the sign prefix and magnitude of s. The magnitude is
// unsigned so math.MinInt does not overflow.
func splitSign(s int) (string, uint) {
	if s < 0 {
		return "-", -uint(s)
	}
	return "", uint(s)
}

// FormatOptional renders a possibly absent value, nil gives N/A.
func FormatOptional(s *int) string {
	if s == nil {
		return NotAvailable
	}
	return FormatSeconds(*s)
}

// FormatFloat truncates f toward zero and renders it as H:MM:SS.
// NaN and infinities give N/A.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NotAvailable
	}
	return FormatSeconds(int(f))
}

// FormatSplit renders a 5 km split as MM:SS. Minutes are not wrapped at 60.
func FormatSplit(s int) string {
	sign, u := splitSign(s)
	return fmt.Sprintf("%s%02d:%02d", sign, u/secondsPerMinute, u%secondsPerMinute)
}

// FormatSplitOptional renders a split or N/A when it was not recorded.
func FormatSplitOptional(s int, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return FormatSplit(s)
}

// FormatPace renders the average pace over km kilometres as M:SS/km.
func FormatPace(totalSeconds int, km float64) string {
	if km <= 0 {
		return NotAvailable
	}
	pace := float64(totalSeconds) / km
	minutes := int(math.Floor(pace / secondsPerMinute))
	seconds := int(math.Mod(pace, secondsPerMinute))
	return fmt.Sprintf("%d:%02d/km", minutes, seconds)
}

// ParseClock parses "H:MM:SS" or "MM:SS" into seconds.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 3:
		return nums[0]*secondsPerHour + nums[1]*secondsPerMinute + nums[2], nil
	case 2:
		return nums[0]*secondsPerMinute + nums[1], nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
}

// ParseDuration accepts either plain integer seconds or a clock string.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
		}
		return n, nil
	}
	return ParseClock(s)
}
