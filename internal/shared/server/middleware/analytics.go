package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flowaudit-backend/internal/analytics"
)

// Analytics records every request on entry and back-fills status and
// duration on completion. The AI flag comes from the useAI query parameter,
// which the analyze endpoints use.
func Analytics(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		aiRequested := strings.EqualFold(c.Query("useAI"), "true")
		if aiRequested {
			c.Set("aiRequested", true)
		}

		start := time.Now()
		logID := agg.RecordRequest(
			ClientKeyFromContext(c),
			endpoint,
			c.Request.Method,
			c.Request.UserAgent(),
			aiRequested,
		)

		c.Next()

		agg.RecordResponse(logID, c.Writer.Status(), time.Since(start))
	}
}
