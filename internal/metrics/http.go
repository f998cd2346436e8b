package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// probePaths are polled by orchestrators and would drown the order routes.
var probePaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// HTTPMetricsMiddleware counts requests, their latency and how many are in flight. Labels
// use the matched route pattern (/v1/orders/:id) so cardinality stays bounded. When the
// instruments cannot be created the middleware passes requests through unmeasured.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	meter := meterProvider.Meter(namespace)

	requests, counterErr := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("HTTP requests by method, route and status code"),
		metric.WithUnit("{request}"),
	)
	latency, histoErr := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
	)
	inFlight, gaugeErr := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_http_requests_in_flight", namespace),
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if counterErr != nil || histoErr != nil || gaugeErr != nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		route := sanitizePath(c.FullPath())
		if probePaths[route] {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		start := time.Now()
		inFlight.Add(ctx, 1)
		defer inFlight.Add(ctx, -1)

		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", route),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		requests.Add(ctx, 1, attrs)
		latency.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// sanitizePath returns the matched route pattern, or "unknown" for unmatched routes.
func sanitizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}
