// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"order-printer/internal/utils"
)

// LoggingMiddleware logs every request once it completes. Requests to
// quietPaths are only logged when they fail, so probes do not flood the log.
func LoggingMiddleware(logger *utils.ServiceLogger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if quiet[c.Request.URL.Path] && status < 400 {
			return
		}

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.GetString(utils.RequestIDKey),
			c.ClientIP(),
			status,
			time.Since(start),
		)
	}
}
