package feed

import (
	"sync"
	"time"
)

// inputLimiter caps how many input messages a viewer may send per window.
// A zero limit or window disables it.
type inputLimiter struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu     sync.Mutex
	events []time.Time
}

func newInputLimiter(window time.Duration, limit int, now func() time.Time) *inputLimiter {
	if now == nil {
		now = time.Now
	}
	return &inputLimiter{window: window, limit: limit, now: now}
}

// Allow reports whether one more message fits in the current window.
func (l *inputLimiter) Allow() bool {
	if l == nil || l.limit <= 0 || l.window <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.events[:0]
	for _, ts := range l.events {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.events = kept
	if len(l.events) >= l.limit {
		return false
	}
	l.events = append(l.events, now)
	return true
}
