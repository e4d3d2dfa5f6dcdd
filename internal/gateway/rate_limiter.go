package gateway

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a per-client token bucket. Buckets hold up to burst tokens
// and refill at perMinute tokens per minute.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	bucketsMux sync.Mutex
	perMinute  int
	burst      int
	now        func() time.Time
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		buckets:   make(map[string]*tokenBucket),
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
	}
}

// Allow takes one token from key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastSeen)
	if elapsed > 0 {
		bucket.tokens += elapsed.Minutes() * float64(rl.perMinute)
		if bucket.tokens > float64(rl.burst) {
			bucket.tokens = float64(rl.burst)
		}
	}
	bucket.lastSeen = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// cleanup removes buckets idle for longer than maxIdle
func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for key, bucket := range rl.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanup drops idle buckets every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup(interval)
			}
		}
	}()
}
