// internal/ratelimit/token_bucket.go
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Limiter grants submission permits per key. Acquire never blocks: when
// no token is available it returns the wait after which a retry can
// succeed. Keys are (platform, credential identity) pairs and never
// share buckets.
type Limiter interface {
	Acquire(key string) (ok bool, retryAfter time.Duration)
}

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket is an in-process per-key token bucket. Capacity bounds the
// burst; refill is tokens per second. All buckets created under one
// limiter share the same rate configuration.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64
	now      func() time.Time
}

// NewTokenBucket constructs a limiter with the provided capacity and
// refill rate. A non-positive refill makes exhausted buckets permanent,
// so it is clamped to a minimal rate.
func NewTokenBucket(capacity int, refillPerSecond float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSecond <= 0 {
		refillPerSecond = 0.001
	}
	return &TokenBucket{
		buckets:  make(map[string]*bucket),
		capacity: float64(capacity),
		refill:   refillPerSecond,
		now:      time.Now,
	}
}

// Acquire consumes one token for key if available. When the bucket is
// empty it returns false and the duration until a full token accrues.
func (b *TokenBucket) Acquire(key string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{tokens: b.capacity, last: now}
		b.buckets[key] = bk
	}

	elapsed := now.Sub(bk.last).Seconds()
	if elapsed > 0 {
		bk.tokens = math.Min(b.capacity, bk.tokens+elapsed*b.refill)
		bk.last = now
	}

	if bk.tokens >= 1 {
		bk.tokens--
		return true, 0
	}

	wait := time.Duration((1 - bk.tokens) / b.refill * float64(time.Second))
	return false, wait
}

// withClock substitutes the time source. Test hook.
func (b *TokenBucket) withClock(now func() time.Time) *TokenBucket {
	b.now = now
	return b
}
