// Package requestlog emits one access-log line per request.
package requestlog

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"portal_backend/internal/platform/guard"
)

// Middleware logs method, path, status, client IP and the reconciled user ID
// after each request. Static assets are skipped. The log level follows the
// status class so 5xx and 4xx responses stand out.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"remote_addr", c.ClientIP(),
			"user_id", guard.UserID(c),
		}

		switch {
		case status >= 500:
			slog.Error("request", attrs...)
		case status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	}
}
