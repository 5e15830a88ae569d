package usage

import (
	"sync"
	"time"

	"flowaudit-backend/internal/shared/metrics"
	"flowaudit-backend/internal/shared/telemetry"
)

const warnFraction = 0.8

// CostGovernor gates all AI-enhanced requests behind a single global daily
// cap. It shares the fixed-window semantics of Limiter but is scoped
// process-wide rather than per client.
type CostGovernor struct {
	mu     sync.Mutex
	ent    entry
	cap    int
	window time.Duration
	now    func() time.Time
	warned bool
}

// NewCostGovernor constructs a CostGovernor with the given daily cap.
func NewCostGovernor(cap int, window time.Duration, now func() time.Time) *CostGovernor {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &CostGovernor{
		cap:    cap,
		window: window,
		now:    now,
	}
}

// Allow applies the window transition for the global counter. Crossing the
// warning threshold logs but never denies; only reaching the cap denies.
func (g *CostGovernor) Allow() Decision {
	if g == nil || g.cap <= 0 {
		return Decision{Allowed: true}
	}
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ent.resetAt.After(now) {
		g.ent = entry{count: 1, resetAt: now.Add(g.window)}
		g.warned = false
		return Decision{Allowed: true, Remaining: g.cap - 1, ResetAt: g.ent.resetAt}
	}
	if g.ent.count >= g.cap {
		return Decision{
			Allowed:    false,
			RetryAfter: g.ent.resetAt.Sub(now),
			ResetAt:    g.ent.resetAt,
		}
	}
	g.ent.count++
	if !g.warned && float64(g.ent.count) >= warnFraction*float64(g.cap) {
		g.warned = true
		metrics.IncAIQuotaWarning()
		telemetry.Warn("ai.quota.warning", map[string]any{
			"used":      g.ent.count,
			"cap":       g.cap,
			"resets_at": g.ent.resetAt.UTC().Format(time.RFC3339),
		})
	}
	return Decision{Allowed: true, Remaining: g.cap - g.ent.count, ResetAt: g.ent.resetAt}
}

// Usage reports the current counter without mutating it.
func (g *CostGovernor) Usage() (used, cap int, resetAt time.Time, warning bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.ent.resetAt.After(now) {
		return 0, g.cap, time.Time{}, false
	}
	warning = float64(g.ent.count) >= warnFraction*float64(g.cap)
	return g.ent.count, g.cap, g.ent.resetAt, warning
}
