// Package metrics provides middleware that records HTTP request metrics.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"

	obsmetrics "github.com/extlabs/ext/pkg/observability/metrics"
)

// Middleware creates middleware that records request count, latency and
// in-flight gauges into the registry. The route template is used as the
// endpoint label so path parameters do not explode cardinality.
func Middleware(registry *obsmetrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		registry.RequestStarted(method)
		defer registry.RequestFinished(method)

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		registry.RecordRequest(method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
