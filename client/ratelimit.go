package client

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Backoff tuning for rate-limited hosts.
const (
	InitialBackoff        = 1 * time.Second
	MaxBackoff            = 60 * time.Second
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRateFactor is the lowest fraction of the configured rate a host is
	// throttled to after repeated 429s.
	MinRateFactor = 0.25
)

type hostState struct {
	limiter  *rate.Limiter
	backoff  time.Duration
	lastHit  time.Time
	hits     int
	throttle float64 // fraction of rps currently allowed; 0 means full rate
}

// RateLimiter is a token bucket per site. Hosts under one registrable
// domain (api.example.com, cdn.example.com) share a bucket. A 429 from a
// site starts an exponential backoff and lowers its rate until successes
// bring it back.
type RateLimiter struct {
	mu    sync.Mutex
	hosts map[string]*hostState
	rps   float64
	burst int
	now   func() time.Time
}

// NewRateLimiter returns a limiter allowing rps requests per second with
// the given burst per site. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{hosts: make(map[string]*hostState), rps: rps, burst: burst, now: time.Now}
}

// SiteKey maps a URL to the key its requests are limited under: the
// registrable domain, or the bare host for IPs, localhost and single labels.
func SiteKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return site
	}
	return host
}

// Wait blocks until key may send a request: first any active backoff, then
// a token from the bucket.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	if rl == nil || rl.rps <= 0 {
		return nil
	}
	rl.mu.Lock()
	st := rl.state(key)
	remaining := time.Duration(0)
	if st.hits > 0 {
		remaining = st.backoff - rl.now().Sub(st.lastHit)
	}
	lim := st.limiter
	rl.mu.Unlock()

	if remaining > 0 {
		t := time.NewTimer(remaining)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return lim.Wait(ctx)
}

// RateLimited records a 429/503 for key and returns how long to back off:
// the longer of retryAfter and the current exponential step.
func (rl *RateLimiter) RateLimited(key string, retryAfter time.Duration) time.Duration {
	if rl == nil || rl.rps <= 0 {
		return max(retryAfter, InitialBackoff)
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	st := rl.state(key)
	st.hits++
	st.lastHit = rl.now()
	if st.hits == 1 {
		st.backoff = InitialBackoff
	} else {
		st.backoff = min(st.backoff*2, MaxBackoff)
	}
	if retryAfter > st.backoff {
		st.backoff = retryAfter
	}

	switch {
	case st.hits >= 3:
		st.throttle = MinRateFactor
	case st.hits == 2:
		st.throttle = 0.5
	default:
		st.throttle = 0.75
	}
	st.limiter.SetLimit(rate.Limit(rl.rps * st.throttle))
	return st.backoff
}

// Succeeded records a successful request. After the cooldown period the
// full rate is restored; before that each success forgives one hit.
func (rl *RateLimiter) Succeeded(key string) {
	if rl == nil || rl.rps <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	st, ok := rl.hosts[key]
	if !ok || st.hits == 0 {
		return
	}
	if rl.now().Sub(st.lastHit) > BackoffCooldownPeriod {
		st.hits, st.backoff, st.throttle = 0, 0, 0
		st.limiter.SetLimit(rate.Limit(rl.rps))
		return
	}
	st.hits--
	if st.hits == 0 && st.throttle < 0.5 {
		st.throttle = 0.5
		st.limiter.SetLimit(rate.Limit(rl.rps * st.throttle))
	}
}

// Limit returns the current requests-per-second allowance for key.
func (rl *RateLimiter) Limit(key string) float64 {
	if rl == nil || rl.rps <= 0 {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return float64(rl.state(key).limiter.Limit())
}

// state must be called with mu held.
func (rl *RateLimiter) state(key string) *hostState {
	st, ok := rl.hosts[key]
	if !ok {
		st = &hostState{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.hosts[key] = st
	}
	return st
}
