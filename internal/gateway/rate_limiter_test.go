package gateway

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, burst)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(60, 5)

	for i := 0; i < 5; i++ {
		if !rl.Allow("user:123") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}
	if rl.Allow("user:123") {
		t.Error("Request should be denied after exhausting the burst")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl, clock := newTestLimiter(60, 2)

	rl.Allow("k")
	rl.Allow("k")
	if rl.Allow("k") {
		t.Fatal("Bucket should be empty")
	}

	clock.advance(1500 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("One token should refill after 1.5s at 60/min")
	}
	if rl.Allow("k") {
		t.Error("Only one token should have refilled")
	}

	clock.advance(time.Hour)
	for i := 0; i < 2; i++ {
		if !rl.Allow("k") {
			t.Errorf("Request %d should be allowed after a full refill", i+1)
		}
	}
	if rl.Allow("k") {
		t.Error("Refill must not exceed the burst size")
	}
}

func TestRateLimiter_Allow_DifferentKeys(t *testing.T) {
	rl, _ := newTestLimiter(60, 1)

	if !rl.Allow("user:1") {
		t.Error("First request for user:1 should be allowed")
	}
	if !rl.Allow("user:2") {
		t.Error("user:2 should have its own bucket")
	}
	if rl.Allow("user:1") {
		t.Error("user:1 should be limited")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(60, 1)
	rl.Allow("idle")
	clock.advance(2 * time.Minute)
	rl.Allow("active")

	rl.cleanup(time.Minute)

	if _, ok := rl.buckets["idle"]; ok {
		t.Error("Idle bucket should be removed")
	}
	if _, ok := rl.buckets["active"]; !ok {
		t.Error("Active bucket should be kept")
	}
}
