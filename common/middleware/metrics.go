package middleware

import (
	"context"
	"strconv"
	"time"

	aws_pkg "orderpro/pkg/aws"

	"github.com/gin-gonic/gin"
)

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error
}

// HTTPMetrics records a request count, latency and error count per route.
// Data points are sent off the request path.
func HTTPMetrics(rec MetricsRecorder, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil || !rec.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		go func(method, path string, status int, dur time.Duration) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dims := map[string]string{
				"Service": service,
				"Method":  method,
				"Path":    path,
				"Status":  strconv.Itoa(status/100) + "xx",
			}
			_ = rec.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dims)
			_ = rec.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, dur, dims)
			if status >= 400 {
				_ = rec.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dims)
			}
		}(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
