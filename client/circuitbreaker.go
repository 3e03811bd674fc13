package client

import (
	"sync"
	"time"
)

// CircuitState is the state of one host's circuit.
type CircuitState int

const (
	// CircuitClosed lets requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen fails requests fast.
	CircuitOpen
	// CircuitHalfOpen lets a single probe through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
)

type circuit struct {
	state    CircuitState
	failures int
	changed  time.Time
	probing  bool
}

// CircuitBreaker tracks consecutive transient failures per host and opens
// the circuit once they reach the threshold. After the recovery timeout one
// probe request is let through; its outcome closes or reopens the circuit.
type CircuitBreaker struct {
	mu        sync.Mutex
	circuits  map[string]*circuit
	threshold int
	recovery  time.Duration
	now       func() time.Time
}

// NewCircuitBreaker returns a breaker. Non-positive values select defaults.
func NewCircuitBreaker(threshold int, recovery time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if recovery <= 0 {
		recovery = DefaultRecoveryTimeout
	}
	return &CircuitBreaker{
		circuits:  make(map[string]*circuit),
		threshold: threshold,
		recovery:  recovery,
		now:       time.Now,
	}
}

// Allow returns ErrCircuitOpen when requests to host must fail fast.
func (cb *CircuitBreaker) Allow(host string) error {
	if cb == nil {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	switch c.state {
	case CircuitOpen:
		if cb.now().Sub(c.changed) < cb.recovery {
			return ErrCircuitOpen
		}
		cb.set(c, CircuitHalfOpen)
		c.probing = true
		return nil
	case CircuitHalfOpen:
		if c.probing {
			return ErrCircuitOpen
		}
		c.probing = true
		return nil
	default:
		return nil
	}
}

// Success records a completed request.
func (cb *CircuitBreaker) Success(host string) {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	c.failures = 0
	c.probing = false
	if c.state != CircuitClosed {
		cb.set(c, CircuitClosed)
	}
}

// Failure records a failed request. Permanent errors leave the circuit alone.
func (cb *CircuitBreaker) Failure(host string, err error) {
	if cb == nil || !IsTransient(err) {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	c.failures++
	c.probing = false
	switch c.state {
	case CircuitClosed:
		if c.failures >= cb.threshold {
			cb.set(c, CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.set(c, CircuitOpen)
	}
}

// State returns host's current state.
func (cb *CircuitBreaker) State(host string) CircuitState {
	if cb == nil {
		return CircuitClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[host]
	if !ok {
		return CircuitClosed
	}
	if c.state == CircuitOpen && cb.now().Sub(c.changed) >= cb.recovery {
		return CircuitHalfOpen
	}
	return c.state
}

// Reset closes host's circuit.
func (cb *CircuitBreaker) Reset(host string) {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	delete(cb.circuits, host)
}

// get must be called with mu held.
func (cb *CircuitBreaker) get(host string) *circuit {
	c, ok := cb.circuits[host]
	if !ok {
		c = &circuit{state: CircuitClosed, changed: cb.now()}
		cb.circuits[host] = c
	}
	return c
}

func (cb *CircuitBreaker) set(c *circuit, s CircuitState) {
	c.state = s
	c.changed = cb.now()
}
