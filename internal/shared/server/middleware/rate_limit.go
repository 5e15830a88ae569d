package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flowaudit-backend/internal/shared/metrics"
	"flowaudit-backend/internal/shared/server/respond"
	"flowaudit-backend/internal/usage"
)

// RateLimit gates every request through the general traffic budget. Health
// and metrics probes are exempt.
func RateLimit(limiter *usage.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		d := limiter.Allow(ClientKeyFromContext(c))
		if d.Allowed {
			c.Next()
			return
		}

		metrics.IncRateLimitDenied()
		retryAfter := usage.RetryAfterSeconds(d.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please retry later.", gin.H{
			"retryAfterSeconds": retryAfter,
		})
	}
}
