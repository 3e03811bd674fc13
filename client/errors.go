package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ytclone/api"
)

var (
	// ErrCircuitOpen is returned while a host's circuit is open.
	ErrCircuitOpen = errors.New("client: circuit breaker is open")
	// ErrNoBaseURL is returned by New for an empty or relative base URL.
	ErrNoBaseURL = errors.New("client: absolute base URL required")
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	// Message is the server's error text, when the body carried one.
	Message string
	Field   string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: body}
	var apiErr api.Error
	if json.Unmarshal(body, &apiErr) == nil {
		e.Message = apiErr.Error
		e.Field = apiErr.Field
	}
	return e
}

// RateLimitError is a 429 or 503 response.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.StatusCode
	}
	return 0
}

// IsTransient reports whether err may succeed on a later attempt: network
// failures, rate limits and 5xx responses. 4xx responses and cancellation
// are permanent.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= http.StatusInternalServerError
	}
	return true
}
