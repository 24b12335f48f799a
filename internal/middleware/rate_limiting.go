package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"founderkit-backend/internal/config"
)

// RateLimitMiddleware creates a middleware that limits request rate per IP.
// Webhook deliveries bypass the limit: the payment processor controls that
// traffic and throttling it only causes retry storms.
func RateLimitMiddleware(cfg *config.Config, manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil || shouldBypassRateLimit(c.Request) {
			c.Next()
			return
		}

		limiter := manager.GetVisitor(
			c.ClientIP(),
			cfg.RateLimitRequests,
			cfg.RateLimitWindow,
			cfg.RateLimitBurst,
		)

		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func shouldBypassRateLimit(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}

	switch r.URL.Path {
	case "/api/webhook", "/health", "/metrics":
		return true
	}

	return false
}
