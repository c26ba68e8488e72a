package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRemoteTimeout = 5 * time.Second
	defaultRemoteRetries = 2
	defaultRetryDelay    = 200 * time.Millisecond
)

// RemoteOption configures a RemotePredictor.
type RemoteOption func(*RemotePredictor)

// WithHTTPClient replaces the HTTP client. The client is shared, never
// modified.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemotePredictor) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemotePredictor) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetries sets how many times a retryable answer is retried.
func WithRetries(n int, delay time.Duration) RemoteOption {
	return func(r *RemotePredictor) {
		if n >= 0 {
			r.retries = n
		}
		if delay > 0 {
			r.delay = delay
		}
	}
}

// RemotePredictor calls a model served over HTTP. The server receives
// Features as JSON and answers {"seconds": <float>}.
type RemotePredictor struct {
	client  *http.Client
	url     string
	timeout time.Duration
	retries int
	delay   time.Duration
}

// NewRemotePredictor creates a client for the model served at url.
func NewRemotePredictor(url string, opts ...RemoteOption) *RemotePredictor {
	r := &RemotePredictor{
		url:     url,
		timeout: defaultRemoteTimeout,
		retries: defaultRemoteRetries,
		delay:   defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{}
	}
	return r
}

type remoteResponse struct {
	Seconds *float64 `json:"seconds"`
}

// Predict posts f to the model. Answers 429, 502, 503 and 504 are retried
// with a delay growing linearly per attempt. Each attempt gets its own
// timeout.
func (r *RemotePredictor) Predict(ctx context.Context, f Features) (float64, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("marshal features: %w", err)
	}

	for attempt := 0; ; attempt++ {
		secs, retry, err := r.do(ctx, payload)
		if !retry || attempt >= r.retries {
			return secs, err
		}
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("remote model: %w", ctx.Err())
		case <-time.After(r.delay * time.Duration(attempt+1)):
		}
	}
}

func (r *RemotePredictor) do(ctx context.Context, payload []byte) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return 0, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrPredict, err)
	}
	defer resp.Body.Close()

	switch {
	case retryable(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return 0, false, fmt.Errorf("%w: status %d: %s", ErrPredict, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, false, fmt.Errorf("%w: decode response: %w", ErrPredict, err)
	}
	if out.Seconds == nil {
		return 0, false, fmt.Errorf("%w: response has no seconds", ErrPredict)
	}
	return *out.Seconds, false, nil
}

// retryable reports whether code signals a transient overload or gateway
// failure.
func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
