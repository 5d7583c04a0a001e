package telemetry

import (
	"sync"
	"time"
)

// RateLimiter is a trivial "at most one event per interval" limiter
// used to throttle error-level log lines during cascading failures.
type RateLimiter struct {
	interval time.Duration
	lastTime time.Time
	mu       sync.Mutex
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Allow reports whether an event may pass right now, updating the
// internal clock if so.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Sub(r.lastTime) < r.interval {
		return false
	}
	r.lastTime = now
	return true
}
