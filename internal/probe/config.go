// Package probe drives a running halfpace server with synthetic runners and
// checks the consistency of the prediction reports it returns.
package probe

import (
	"errors"
	"time"
)

// ErrInvariant is returned by Run when at least one report fails a check.
var ErrInvariant = errors.New("probe: invariant violated")

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Runners    int           // Number of synthetic runners to submit
	Workers    int           // Number of concurrent requests
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional JSON file receiving all reports
	Verbose    bool          // Log every violation
}

// Profile is a synthetic runner submitted to /v1/predictions.
type Profile struct {
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	Age           int    `json:"age"`
	Time5kSeconds int    `json:"time_5k_seconds"`
}

// Stats holds probe statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Failed     int
	Violations int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
