package usage

import (
	"sync"
	"time"
)

// entry is the Active state of a fixed-window counter. A key with no entry,
// or an entry whose resetAt has passed, is in the Absent state.
type entry struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of a single fixed-window transition.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter enforces a fixed-window request budget per key.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]entry
	cap     int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter constructs a Limiter with the given cap per window.
func NewLimiter(cap int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		entries: make(map[string]entry),
		cap:     cap,
		window:  window,
		now:     now,
	}
}

// Allow applies the window transition for key as one atomic step:
// an absent or expired entry is replaced with a fresh count of 1,
// a live entry below the cap is incremented, and a live entry at the
// cap is denied with the seconds remaining until the window resets.
func (l *Limiter) Allow(key string) Decision {
	if l == nil || l.cap <= 0 {
		return Decision{Allowed: true}
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Decision{Allowed: true, Remaining: l.cap - 1, ResetAt: e.resetAt}
	}
	if e.count < l.cap {
		e.count++
		l.entries[key] = e
		return Decision{Allowed: true, Remaining: l.cap - e.count, ResetAt: e.resetAt}
	}
	return Decision{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: e.resetAt.Sub(now),
		ResetAt:    e.resetAt,
	}
}

// Evict removes entries whose window has expired. Safe to call concurrently
// with Allow.
func (l *Limiter) Evict() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor evicts expired entries on a ticker until stop is closed.
func (l *Limiter) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Evict()
			case <-stop:
				return
			}
		}
	}()
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
