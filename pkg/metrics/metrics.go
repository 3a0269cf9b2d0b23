// Package metrics provides Prometheus instrumentation for the
// disbursement gateway.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path pattern and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relief_gateway",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relief_gateway",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AuthorizationsTotal counts spend authorizations by outcome and risk level.
	AuthorizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relief_gateway",
			Name:      "authorizations_total",
			Help:      "Spend authorization decisions by outcome and risk level.",
		},
		[]string{"outcome", "risk_level"},
	)

	// AuthorizationDuration observes the full authorization pipeline latency.
	AuthorizationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relief_gateway",
			Name:      "authorization_duration_seconds",
			Help:      "Spend authorization pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// FraudFlagsTotal counts detector triggers by pattern and severity.
	FraudFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relief_gateway",
			Name:      "fraud_flags_total",
			Help:      "Fraud detector triggers by pattern and severity.",
		},
		[]string{"pattern", "severity"},
	)

	// VendorSuspensionsTotal counts automatic vendor suspensions.
	VendorSuspensionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relief_gateway",
			Name:      "vendor_suspensions_total",
			Help:      "Vendors automatically suspended by the suspicion tracker.",
		},
	)

	// NotificationErrorsTotal counts failed best-effort event publishes.
	NotificationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "relief_gateway",
			Name:      "notification_errors_total",
			Help:      "Decision event publishes that failed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthorizationsTotal,
		AuthorizationDuration,
		FraudFlagsTotal,
		VendorSuspensionsTotal,
		NotificationErrorsTotal,
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request counts and is installed globally.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
