// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-printer/internal/utils"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope. If the
// handler already started the response it is only aborted.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.LoggerWithRequestID(logger, c.GetString(utils.RequestIDKey)).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stacktrace"),
		)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		utils.AbortWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	})
}
