package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"flowaudit-backend/internal/analytics"
	"flowaudit-backend/internal/usage"
)

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestClientKeyPrefersForwardedAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ClientKey())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = ClientKeyFromContext(c)
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "203.0.113.7" {
		t.Fatalf("expected first forwarded address, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:4321"
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "192.0.2.5" {
		t.Fatalf("expected peer address fallback, got %q", seen)
	}
}

func TestRateLimitDeniesOverCap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	limiter := usage.NewLimiter(2, time.Minute, func() time.Time { return now })

	r := gin.New()
	r.Use(ClientKey(), RateLimit(limiter))
	r.GET("/api/v1/flows", okHandler)
	r.GET("/api/v1/health", okHandler)

	hit := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := hit("/api/v1/flows"); resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	resp := hit("/api/v1/flows")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over cap, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on denial")
	}
	var out map[string]map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode denial body: %v", err)
	}
	if out["error"]["code"] != "rate_limited" {
		t.Fatalf("expected rate_limited code, got %v", out["error"]["code"])
	}

	// Health probes stay exempt even when the client is over cap.
	if resp := hit("/api/v1/health"); resp.Code != http.StatusOK {
		t.Fatalf("health probe should bypass the limiter, got %d", resp.Code)
	}
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	limiter := usage.NewLimiter(1, time.Minute, func() time.Time { return now })

	r := gin.New()
	r.Use(ClientKey(), RateLimit(limiter))
	r.GET("/api/v1/flows", okHandler)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/flows", nil)
		req.Header.Set("X-Forwarded-For", addr)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := hit("203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first client expected 200, got %d", code)
	}
	if code := hit("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("first client expected 429, got %d", code)
	}
	if code := hit("203.0.113.8"); code != http.StatusOK {
		t.Fatalf("second client must have its own budget, got %d", code)
	}
}

func TestAnalyticsRecordsRequestAndResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agg := analytics.NewAggregator(nil)

	r := gin.New()
	r.Use(ClientKey(), Analytics(agg))
	r.POST("/api/v1/analyze", okHandler)
	r.GET("/api/v1/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze?useAI=true", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	snap := agg.Snapshot()
	if snap.Today.TotalRequests != 2 {
		t.Fatalf("expected 2 requests recorded, got %d", snap.Today.TotalRequests)
	}
	if snap.Today.AIRequests != 1 {
		t.Fatalf("expected 1 AI request, got %d", snap.Today.AIRequests)
	}
	if snap.Today.Errors != 1 {
		t.Fatalf("expected the 404 counted as an error, got %d", snap.Today.Errors)
	}

	if len(snap.RecentLogs) != 2 {
		t.Fatalf("expected 2 recent logs, got %d", len(snap.RecentLogs))
	}
	newest := snap.RecentLogs[0]
	if newest.Endpoint != "/api/v1/missing" || newest.Status != http.StatusNotFound {
		t.Fatalf("unexpected newest log: %+v", newest)
	}
	oldest := snap.RecentLogs[1]
	if oldest.Endpoint != "/api/v1/analyze" || !oldest.AIRequested || !oldest.Completed {
		t.Fatalf("unexpected analyze log: %+v", oldest)
	}
	if oldest.ClientKey != "203.0.113.7" {
		t.Fatalf("expected forwarded client key recorded, got %q", oldest.ClientKey)
	}
}

func TestAnalyticsSkipsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agg := analytics.NewAggregator(nil)

	r := gin.New()
	r.Use(ClientKey(), Analytics(agg))
	r.OPTIONS("/api/v1/analyze", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := agg.Snapshot().Today.TotalRequests; got != 0 {
		t.Fatalf("preflight must not be recorded, got %d requests", got)
	}
}
