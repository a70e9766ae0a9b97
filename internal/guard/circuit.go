package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gameportal/portal/internal/domain"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	}
	return "closed"
}

// CircuitBreaker is a per-key breaker. The outbox consumer keys it by
// topic so one unreachable topic does not stall the others. After
// failThreshold consecutive failures the key opens; once resetTimeout has
// passed a single probe is let through.
type CircuitBreaker struct {
	mu            sync.Mutex
	circuits      map[string]*circuit
	failThreshold int
	resetTimeout  time.Duration
	now           func() time.Time

	// OnStateChange, if set, is called after every transition while the
	// breaker's lock is held; it must not call back into the breaker.
	OnStateChange func(key string, from, to CircuitState)
}

type circuit struct {
	state    CircuitState
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a breaker that opens after failThreshold
// consecutive failures and probes again after resetTimeout.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failThreshold < 1 {
		failThreshold = 1
	}
	return &CircuitBreaker{
		circuits:      make(map[string]*circuit),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		now:           time.Now,
	}
}

func (cb *CircuitBreaker) get(key string) *circuit {
	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{state: CircuitClosed}
		cb.circuits[key] = c
	}
	return c
}

func (cb *CircuitBreaker) transition(key string, c *circuit, to CircuitState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	if cb.OnStateChange != nil {
		cb.OnStateChange(key, from, to)
	}
}

// Check reports whether a call for key may proceed.
func (cb *CircuitBreaker) Check(_ context.Context, key string) domain.GuardResult {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	switch c.state {
	case CircuitOpen:
		wait := cb.resetTimeout - cb.now().Sub(c.openedAt)
		if wait > 0 {
			return domain.GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("circuit open for %s, probing in %s", key, wait.Round(time.Millisecond)),
				Guard:   "circuit_breaker",
			}
		}
		cb.transition(key, c, CircuitHalfOpen)
		c.probing = true
		return domain.GuardResult{Allowed: true}
	case CircuitHalfOpen:
		if c.probing {
			return domain.GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("circuit half-open for %s, probe in flight", key),
				Guard:   "circuit_breaker",
			}
		}
		c.probing = true
		return domain.GuardResult{Allowed: true}
	}
	return domain.GuardResult{Allowed: true}
}

// State returns the current state for key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.circuits[key]; ok {
		return c.state
	}
	return CircuitClosed
}

// RecordSuccess closes the circuit for key and clears its failure count.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.failures = 0
	c.probing = false
	cb.transition(key, c, CircuitClosed)
}

// RecordFailure counts a failure for key. A failed probe reopens at once.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.failures++
	c.probing = false
	if c.state == CircuitHalfOpen || c.failures >= cb.failThreshold {
		c.openedAt = cb.now()
		cb.transition(key, c, CircuitOpen)
	}
}
