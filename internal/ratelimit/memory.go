package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a sliding window limiter held in process memory. Limits
// are per instance, so it serves single-node deployments without Redis.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow checks if a request is allowed under the rate limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.windows[key]
	kept := 0
	for kept < len(hits) && !hits[kept].After(windowStart) {
		kept++
	}
	hits = hits[kept:]

	if len(hits) < limit {
		hits = append(hits, now)
		l.windows[key] = hits
		l.sweep(windowStart)
		return &Result{
			Allowed:   true,
			Remaining: limit - len(hits),
			ResetAt:   now.Add(window),
			Limit:     limit,
		}, nil
	}

	l.windows[key] = hits
	resetAt := now.Add(window)
	if len(hits) > 0 {
		resetAt = hits[0].Add(window)
	}
	return &Result{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   resetAt,
		Limit:     limit,
	}, nil
}

// sweep drops keys whose newest hit has left the window. Callers hold mu.
func (l *MemoryLimiter) sweep(windowStart time.Time) {
	for key, hits := range l.windows {
		if len(hits) == 0 || !hits[len(hits)-1].After(windowStart) {
			delete(l.windows, key)
		}
	}
}
