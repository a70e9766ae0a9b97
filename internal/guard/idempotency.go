package guard

import (
	"context"
	"sync"
	"time"

	"github.com/gameportal/portal/internal/domain"
)

// IdempotencyGuard deduplicates requests by idempotency key and remembers
// the result of each completed request so a retry can replay it.
type IdempotencyGuard struct {
	mu      sync.Mutex
	entries map[string]*idemEntry
	ttl     time.Duration
	now     func() time.Time
}

type idemEntry struct {
	done   bool
	result any
	at     time.Time
}

// NewIdempotencyGuard creates an in-memory idempotency guard. Keys are
// forgotten ttl after they were first seen; ttl <= 0 keeps them forever.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		entries: make(map[string]*idemEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Check reserves key and reports whether the caller may proceed.
// A second Check for a key that is in flight or completed is refused.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if e := ig.live(key); e != nil {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "duplicate request: idempotency key already processed",
			Guard:   "idempotency",
		}
	}

	ig.entries[key] = &idemEntry{at: ig.now()}
	return domain.GuardResult{Allowed: true}
}

// Complete stores the result for a reserved key.
func (ig *IdempotencyGuard) Complete(key string, result any) {
	if key == "" {
		return
	}
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if e, ok := ig.entries[key]; ok {
		e.done = true
		e.result = result
	}
}

// Result returns the stored result of a completed key.
func (ig *IdempotencyGuard) Result(key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	ig.mu.Lock()
	defer ig.mu.Unlock()
	e := ig.live(key)
	if e == nil || !e.done {
		return nil, false
	}
	return e.result, true
}

// Remove deletes a key (for retry after a failed request).
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.entries, key)
}

// live returns the entry for key, dropping it if expired. Caller holds mu.
func (ig *IdempotencyGuard) live(key string) *idemEntry {
	e, ok := ig.entries[key]
	if !ok {
		return nil
	}
	if ig.ttl > 0 && ig.now().Sub(e.at) > ig.ttl {
		delete(ig.entries, key)
		return nil
	}
	return e
}
