package guard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gameportal/portal/internal/domain"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Lockout tracks failed logins per (realm, email) in memory and locks the
// account after MaxAttempts failures inside LockoutWindow.
type Lockout struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

// NewLockout creates an empty lockout tracker.
func NewLockout() *Lockout {
	return &Lockout{failures: make(map[string][]time.Time), now: time.Now}
}

func lockoutKey(email, realm string) string {
	return realm + ":" + strings.ToLower(strings.TrimSpace(email))
}

// RecordAttempt records a login attempt. A success clears earlier failures.
func (l *Lockout) RecordAttempt(_ context.Context, email, realm string, success bool) {
	key := lockoutKey(email, realm)
	l.mu.Lock()
	defer l.mu.Unlock()
	if success {
		delete(l.failures, key)
		return
	}
	l.failures[key] = append(l.recent(key), l.now())
}

// CheckLocked returns ErrAccountLocked if the account has >= MaxAttempts failed
// logins within the lockout window.
func (l *Lockout) CheckLocked(_ context.Context, email, realm string) error {
	key := lockoutKey(email, realm)
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent(key)) >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}

// recent prunes and returns the failures still inside the window. Caller holds mu.
func (l *Lockout) recent(key string) []time.Time {
	cutoff := l.now().Add(-LockoutWindow)
	kept := l.failures[key][:0]
	for _, t := range l.failures[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}
