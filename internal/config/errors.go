package config

import "errors"

// Sentinel errors returned by Load and Validate.
var (
	// ErrInvalidConfig marks a value that failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file, env or decode failure.
	ErrLoadConfig = errors.New("load config failed")
)
