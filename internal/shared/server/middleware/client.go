package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const clientKeyKey = "clientKey"

// ClientKey resolves a stable client identifier for rate limiting and
// analytics. The first forwarded address wins; otherwise the peer address.
func ClientKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ""
		if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			key = strings.TrimSpace(parts[0])
		}
		if key == "" {
			key = c.ClientIP()
		}
		c.Set(clientKeyKey, key)
		c.Next()
	}
}

// ClientKeyFromContext fetches the client key stored by ClientKey middleware.
func ClientKeyFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientKeyKey)
	if key, ok := val.(string); ok {
		return key
	}
	return ""
}
