package pipeline

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToCap(t *testing.T) {
	rl := newRateLimiter(3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !rl.Allow(now) {
			t.Fatalf("request %d should be allowed under the cap", i)
		}
	}
	if rl.Allow(now) {
		t.Error("4th request should be rejected once the cap is reached")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := newRateLimiter(1)
	now := time.Now()

	if !rl.Allow(now) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow(now) {
		t.Error("second request in the same instant should be rejected")
	}
	if !rl.Allow(now.Add(2 * time.Minute)) {
		t.Error("request after the window has elapsed should be allowed again")
	}
}

func TestRateLimiterDisabledWhenNonPositive(t *testing.T) {
	rl := newRateLimiter(0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		if !rl.Allow(now) {
			t.Fatalf("limiter with cap<=0 should never reject, failed at %d", i)
		}
	}
}
