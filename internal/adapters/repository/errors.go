package repository

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrLoad   = errors.New("dataset load failed")
	ErrSchema = errors.New("dataset schema mismatch")
)
