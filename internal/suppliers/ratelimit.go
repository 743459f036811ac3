package suppliers

import (
	"sync"
	"time"
)

// RateLimitTracker keeps a local fixed-window view of an upstream quota so
// clients can report RateLimitInfo without an extra API call.
type RateLimitTracker struct {
	mtx       sync.Mutex
	limit     int
	window    time.Duration
	used      int
	windowEnd time.Time
}

// NewRateLimitTracker builds a tracker for the given quota per window.
func NewRateLimitTracker(limit int, window time.Duration) *RateLimitTracker {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitTracker{limit: limit, window: window}
}

// Record counts one upstream call.
func (t *RateLimitTracker) Record() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	now := time.Now()
	if now.After(t.windowEnd) {
		t.used = 0
		t.windowEnd = now.Add(t.window)
	}
	t.used++
}

// Info returns the current window snapshot.
func (t *RateLimitTracker) Info() RateLimitInfo {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	now := time.Now()
	if now.After(t.windowEnd) {
		t.used = 0
		t.windowEnd = now.Add(t.window)
	}
	remaining := t.limit - t.used
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitInfo{
		Remaining: remaining,
		ResetTime: t.windowEnd,
		Limit:     t.limit,
	}
}
