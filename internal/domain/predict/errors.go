package predict

import "errors"

var (
	// ErrPredict is returned when the model produced no usable prediction.
	ErrPredict = errors.New("prediction failed")
	// ErrUnavailable is returned when a remote model keeps answering 429, 502, 503 or 504.
	ErrUnavailable = errors.New("prediction service unavailable")
)
