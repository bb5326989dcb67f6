// Package logging provides request logging middleware.
package logging

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/extlabs/ext/pkg/middleware/requestid"
	"github.com/extlabs/ext/pkg/observability/logger"
)

// Config configures request logging behavior.
type Config struct {
	// ExcludedPathPrefixes lists path prefixes that are not logged, such as
	// health and metrics endpoints polled by infrastructure.
	ExcludedPathPrefixes []string
}

// Middleware creates middleware that logs one structured entry per request.
func Middleware(log logger.Logger) gin.HandlerFunc {
	return WithConfig(log, Config{})
}

// WithConfig creates request logging middleware with custom configuration.
func WithConfig(log logger.Logger, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range cfg.ExcludedPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		fields := []any{
			"request_id", requestid.FromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", c.ClientIP(),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, "query_string", query)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
