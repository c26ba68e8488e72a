package service

import "errors"

// Sentinel errors returned by the service.
var (
	// ErrNotStarted is returned by queries issued before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidRequest marks caller input the service rejects.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoSource is returned by Start and Reload without a dataset source.
	ErrNoSource = errors.New("no dataset source configured")
)
