// Package client talks to the ytclone HTTP API with retries, a per-site
// token bucket that backs off on 429s, and a per-site circuit breaker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ytclone/internal/logger"
	"ytclone/internal/retry"
	"ytclone/metrics"
)

// DefaultUserAgent is sent when no other User-Agent is configured.
const DefaultUserAgent = "ytclone-client/1.0"

// Config holds client settings.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerThreshold  int
	BreakerCooldown   time.Duration
	Retry             retry.Config
	UserAgent         string
}

// DefaultConfig returns the settings used by New when none are given.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
		BreakerThreshold:  DefaultFailureThreshold,
		BreakerCooldown:   DefaultRecoveryTimeout,
		Retry:             retry.DefaultConfig(),
		UserAgent:         DefaultUserAgent,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the default settings.
func WithConfig(cfg Config) Option {
	return func(c *Client) { c.cfg = cfg }
}

// WithHTTPClient sets the underlying *http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// WithMetrics counts requests per site and result.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Client) { c.metrics = r }
}

// WithToken signs requests in with a session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	cfg     Config
	base    *http.Client
	limiter *RateLimiter
	breaker *CircuitBreaker
	metrics *metrics.Registry

	mu    sync.RWMutex
	token string
}

// New returns a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoBaseURL, baseURL)
	}
	c := &Client{baseURL: u, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.UserAgent == "" {
		c.cfg.UserAgent = DefaultUserAgent
	}
	if c.base == nil {
		c.base = &http.Client{
			Timeout: c.cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}
	}
	c.limiter = NewRateLimiter(c.cfg.RequestsPerSecond, c.cfg.Burst)
	c.breaker = NewCircuitBreaker(c.cfg.BreakerThreshold, c.cfg.BreakerCooldown)
	return c, nil
}

// SetToken replaces the session token; "" signs out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Breaker exposes the circuit breaker, mainly for status displays.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Limiter exposes the rate limiter.
func (c *Client) Limiter() *RateLimiter { return c.limiter }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one logical request, retrying transient failures, and decodes a
// JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.endpoint(path, query)
	site := SiteKey(target)

	if err := c.breaker.Allow(site); err != nil {
		c.metrics.ClientRequest(site, "circuit_open")
		return err
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var body []byte
	classify := func(err error) bool { return retry.IsRetryable(err) && IsTransient(err) }
	err := retry.Do(ctx, c.cfg.Retry, classify, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, site); err != nil {
			return err
		}
		b, err := c.roundTrip(ctx, method, target, site, payload)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		c.breaker.Failure(site, err)
		result := "error"
		var rl *RateLimitError
		if errors.As(err, &rl) {
			result = "rate_limited"
		}
		c.metrics.ClientRequest(site, result)
		logger.DebugCtx(ctx, "api request failed",
			logger.KeyMethod, method, logger.KeyPath, path, logger.KeyHost, site, logger.KeyErr, err)
		return err
	}

	c.breaker.Success(site)
	c.limiter.Succeeded(site)
	c.metrics.ClientRequest(site, "ok")

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, target, site string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		wait := c.limiter.RateLimited(site, parseRetryAfter(resp.Header, time.Now()))
		return nil, &RateLimitError{StatusCode: resp.StatusCode, RetryAfter: wait}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, newHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.base.CloseIdleConnections()
	return nil
}
