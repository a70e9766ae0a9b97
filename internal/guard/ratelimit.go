package guard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gameportal/portal/internal/domain"
)

// maxIdleBuckets bounds how many full buckets are kept before a sweep.
const maxIdleBuckets = 10_000

// RateLimiter is a per-key token bucket: each key may burst up to limit
// calls, refilled at limit per window. Login keys it by "<realm>:<email>".
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   float64
	rate    float64 // tokens per second
	now     func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows limit calls per window per key. A non-positive
// limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   float64(limit),
		now:     time.Now,
	}
	if limit > 0 && window > 0 {
		rl.rate = float64(limit) / window.Seconds()
	}
	return rl
}

// Check takes one token for key and reports whether it was available.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	if rl.limit <= 0 {
		return domain.GuardResult{Allowed: true}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxIdleBuckets {
			rl.sweep(now)
		}
		b = &bucket{tokens: rl.limit, seen: now}
		rl.buckets[key] = b
	}
	rl.refill(b, now)

	if b.tokens < 1 {
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("too many attempts, retry in %s", rl.retryAfter(b)),
			Guard:   "rate_limiter",
		}
	}
	b.tokens--
	return domain.GuardResult{Allowed: true}
}

// Allow is Check as an error: nil when allowed, ErrRateLimited otherwise.
func (rl *RateLimiter) Allow(ctx context.Context, key string) error {
	if res := rl.Check(ctx, key); !res.Allowed {
		return domain.ErrRateLimited(res.Reason)
	}
	return nil
}

func (rl *RateLimiter) refill(b *bucket, now time.Time) {
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.limit, b.tokens+elapsed*rl.rate)
	}
	b.seen = now
}

func (rl *RateLimiter) retryAfter(b *bucket) time.Duration {
	if rl.rate <= 0 {
		return 0
	}
	secs := (1 - b.tokens) / rl.rate
	return time.Duration(math.Ceil(secs)) * time.Second
}

// sweep drops buckets that have refilled completely; they carry no state.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, b := range rl.buckets {
		rl.refill(b, now)
		if b.tokens >= rl.limit {
			delete(rl.buckets, k)
		}
	}
}
