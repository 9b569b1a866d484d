package feed

import (
	"testing"
	"time"
)

func TestInputLimiterSlidesWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	limiter := newInputLimiter(time.Second, 2, func() time.Time { return now })

	if !limiter.Allow() || !limiter.Allow() {
		t.Fatalf("expected first two messages to pass")
	}
	if limiter.Allow() {
		t.Fatalf("expected third message in the window to be rejected")
	}
	now = now.Add(1500 * time.Millisecond)
	if !limiter.Allow() {
		t.Fatalf("expected window to slide")
	}
}

func TestInputLimiterDisabled(t *testing.T) {
	limiter := newInputLimiter(0, 0, nil)
	for i := 0; i < 100; i++ {
		if !limiter.Allow() {
			t.Fatalf("disabled limiter rejected message %d", i)
		}
	}
	var missing *inputLimiter
	if !missing.Allow() {
		t.Fatalf("nil limiter must allow")
	}
}
