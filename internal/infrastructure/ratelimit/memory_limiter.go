package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements a fixed-window counter in process memory.
// Suitable for single-instance deployments and tests; state is lost on
// restart and not shared across instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window

	// now is overridable for tests
	now func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter creates an in-memory rate limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow increments the window counter for the key and reports whether
// the request still fits the budget
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, period time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= period {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

// Reset clears all windows
func (l *MemoryLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*window)
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)
