package server

import (
	"sync"
	"time"
)

// rateLimiter is a sliding-window counter keyed by user id. State is
// in-memory; a multi-instance deployment would need a shared store instead.
type rateLimiter struct {
	mu       sync.Mutex
	requests int
	window   time.Duration
	now      func() time.Time
	seen     map[string][]time.Time
}

func newRateLimiter(requests int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		seen:     map[string][]time.Time{},
	}
}

// allow records the request when under the limit. When over, it returns
// false and the number of seconds until the oldest counted request expires.
func (l *rateLimiter) allow(userID string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	kept := l.seen[userID][:0]
	for _, ts := range l.seen[userID] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	l.seen[userID] = kept

	if len(kept) >= l.requests {
		retryAfter := int(kept[0].Add(l.window).Sub(now).Seconds()) + 1
		return false, retryAfter
	}

	l.seen[userID] = append(kept, now)
	return true, 0
}
