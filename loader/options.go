package loader

import (
	"errors"
	"fmt"
	"math"

	"ytclone/viewport"
)

// Errors returned by New for invalid configuration.
var (
	ErrNilFetch          = errors.New("loader: fetch function is required")
	ErrNilSource         = errors.New("loader: visibility source is required")
	ErrInvalidThreshold  = errors.New("loader: threshold must be within [0, 1]")
	ErrInvalidRootMargin = errors.New("loader: invalid root margin")
)

// Defaults applied when the corresponding option is not given.
const (
	DefaultThreshold  = 1.0
	DefaultRootMargin = "0px"
)

type options struct {
	threshold  float64
	rootMargin string
	enabled    bool
	name       string
	metrics    Metrics
}

func defaultOptions() options {
	return options{
		threshold:  DefaultThreshold,
		rootMargin: DefaultRootMargin,
		enabled:    true,
		name:       "feed",
	}
}

// Option configures a Loader.
type Option func(*options)

// WithThreshold sets the fraction of the sentinel that must be visible to
// trigger a fetch. Values outside [0, 1] make New fail.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithRootMargin sets the CSS-style margin applied to the viewport before
// intersecting, e.g. "200px" or "0px 0px 10% 0px".
func WithRootMargin(m string) Option {
	return func(o *options) { o.rootMargin = m }
}

// WithEnabled sets the initial enabled gate. A disabled Loader never
// observes its target.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithName labels the Loader in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithMetrics records fetch outcomes. A nil Metrics disables recording.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func (o options) validate() (viewport.Margin, error) {
	if math.IsNaN(o.threshold) || o.threshold < 0 || o.threshold > 1 {
		return viewport.Margin{}, fmt.Errorf("%w: got %v", ErrInvalidThreshold, o.threshold)
	}
	m, err := viewport.ParseMargin(o.rootMargin)
	if err != nil {
		return viewport.Margin{}, fmt.Errorf("%w: %v", ErrInvalidRootMargin, err)
	}
	return m, nil
}
