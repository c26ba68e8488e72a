package commentary

import "errors"

var (
	// ErrDisabled is returned by generators with no credentials configured.
	ErrDisabled = errors.New("commentary disabled")
	// ErrEmpty is returned when the service produced no text.
	ErrEmpty = errors.New("commentary empty")
)
