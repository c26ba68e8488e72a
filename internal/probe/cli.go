package probe

import "io"

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `halfpace probe
==============

Submits synthetic runners to a running halfpace server and checks that the
returned reports are consistent with each other.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -runners int
        Number of synthetic runners to submit (default 500)
  -workers int
        Number of concurrent requests (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write all reports to this JSON file
  -verbose
        Log every failed request and violation
  -help
        Show this help message

Examples:
  go run ./cmd/probe -runners 2000 -workers 16
  go run ./cmd/probe -url http://localhost:8080 -output reports.json
`)
}
