package analytics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxHistoryDays = 30
	maxRequestLogs = 1000
	recentLogCount = 50
)

// RequestLog is one row per request. Status and duration are back-filled
// when the response completes.
type RequestLog struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ClientKey   string    `json:"clientKey"`
	Endpoint    string    `json:"endpoint"`
	Method      string    `json:"method"`
	AIRequested bool      `json:"aiRequested"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Status      int       `json:"status,omitempty"`
	DurationMs  float64   `json:"durationMs,omitempty"`
	Completed   bool      `json:"completed"`
}

// DailyStats is the exposed per-day summary.
type DailyStats struct {
	Date          string         `json:"date"`
	TotalRequests int            `json:"totalRequests"`
	AIRequests    int            `json:"aiRequests"`
	UniqueClients int            `json:"uniqueClients"`
	Endpoints     map[string]int `json:"endpoints"`
	Errors        int            `json:"errors"`
	AvgResponseMs float64        `json:"avgResponseMs"`
}

// AllTimeStats accumulates totals across every day seen, including days
// already evicted from history.
type AllTimeStats struct {
	TotalRequests int `json:"totalRequests"`
	AIRequests    int `json:"aiRequests"`
	Errors        int `json:"errors"`
	DaysObserved  int `json:"daysObserved"`
}

// Snapshot is the read-only reporting view.
type Snapshot struct {
	Today       DailyStats   `json:"today"`
	RecentLogs  []RequestLog `json:"recentLogs"`
	History     []DailyStats `json:"history"`
	AllTime     AllTimeStats `json:"allTime"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// day is the mutable accumulator for the current calendar date.
type day struct {
	date      string
	total     int
	ai        int
	clients   map[string]struct{}
	endpoints map[string]int
	errors    int
	respSum   float64
	respCount int
}

func newDay(date string) *day {
	return &day{
		date:      date,
		clients:   make(map[string]struct{}),
		endpoints: make(map[string]int),
	}
}

func (d *day) summary() DailyStats {
	endpoints := make(map[string]int, len(d.endpoints))
	for k, v := range d.endpoints {
		endpoints[k] = v
	}
	avg := 0.0
	if d.respCount > 0 {
		avg = d.respSum / float64(d.respCount)
	}
	return DailyStats{
		Date:          d.date,
		TotalRequests: d.total,
		AIRequests:    d.ai,
		UniqueClients: len(d.clients),
		Endpoints:     endpoints,
		Errors:        d.errors,
		AvgResponseMs: avg,
	}
}

// Aggregator records every request/response pair and maintains daily usage
// statistics with rollover at date change.
type Aggregator struct {
	mu      sync.Mutex
	today   *day
	history []DailyStats
	logs    []*RequestLog
	allTime AllTimeStats
	now     func() time.Time
}

// NewAggregator constructs an Aggregator. A nil now defaults to time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	a := &Aggregator{now: now}
	a.today = newDay(dateOf(now()))
	a.allTime.DaysObserved = 1
	return a
}

// RecordRequest logs an inbound request and returns the log entry ID used to
// back-fill the outcome on completion.
func (a *Aggregator) RecordRequest(clientKey, endpoint, method, userAgent string, aiRequested bool) string {
	ts := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover(ts)

	entry := &RequestLog{
		ID:          uuid.NewString(),
		Timestamp:   ts,
		ClientKey:   clientKey,
		Endpoint:    endpoint,
		Method:      method,
		AIRequested: aiRequested,
		UserAgent:   userAgent,
	}
	if len(a.logs) >= maxRequestLogs {
		a.logs = a.logs[1:]
	}
	a.logs = append(a.logs, entry)

	a.today.total++
	a.allTime.TotalRequests++
	if aiRequested {
		a.today.ai++
		a.allTime.AIRequests++
	}
	if clientKey != "" {
		a.today.clients[clientKey] = struct{}{}
	}
	a.today.endpoints[endpoint]++
	return entry.ID
}

// RecordResponse back-fills the matching log entry with status and duration
// and folds the outcome into today's counters.
func (a *Aggregator) RecordResponse(logID string, status int, duration time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := len(a.logs) - 1; i >= 0; i-- {
		if a.logs[i].ID == logID {
			a.logs[i].Status = status
			a.logs[i].DurationMs = float64(duration.Microseconds()) / 1000.0
			a.logs[i].Completed = true
			break
		}
	}
	if status >= 400 {
		a.today.errors++
		a.allTime.Errors++
	}
	a.today.respSum += float64(duration.Microseconds()) / 1000.0
	a.today.respCount++
}

// Snapshot returns the current reporting view. The rollover check runs first
// so stale "today" data is never observed.
func (a *Aggregator) Snapshot() Snapshot {
	ts := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover(ts)

	recent := make([]RequestLog, 0, recentLogCount)
	for i := len(a.logs) - 1; i >= 0 && len(recent) < recentLogCount; i-- {
		recent = append(recent, *a.logs[i])
	}
	history := make([]DailyStats, len(a.history))
	copy(history, a.history)

	return Snapshot{
		Today:       a.today.summary(),
		RecentLogs:  recent,
		History:     history,
		AllTime:     a.allTime,
		GeneratedAt: ts,
	}
}

// rollover archives the current accumulator when the calendar date has
// changed. Caller must hold the lock.
func (a *Aggregator) rollover(ts time.Time) {
	date := dateOf(ts)
	if a.today.date == date {
		return
	}
	a.history = append(a.history, a.today.summary())
	if len(a.history) > maxHistoryDays {
		a.history = a.history[len(a.history)-maxHistoryDays:]
	}
	a.today = newDay(date)
	a.allTime.DaysObserved++
}

func dateOf(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}
