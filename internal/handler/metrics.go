package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	latticeAnchorsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lattice_anchors_created_total",
		Help: "Total trust anchors initialized.",
	})

	latticeRootUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lattice_root_updates_total",
		Help: "Total committed root updates.",
	})

	latticeVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_edge_verifications_total",
		Help: "Total edge inclusion checks by outcome.",
	}, []string{"result"})

	latticeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	latticeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lattice_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	latticeHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lattice_health_checks_total",
		Help: "Total health check probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		latticeRequestsTotal.WithLabelValues(method, path, status).Inc()
		latticeRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAnchorCreated records a successful anchor initialization.
func RecordAnchorCreated() {
	latticeAnchorsCreatedTotal.Inc()
}

// RecordRootUpdate records a successful committed root update.
func RecordRootUpdate() {
	latticeRootUpdatesTotal.Inc()
}

// RecordVerification records an edge inclusion check outcome.
func RecordVerification(included bool) {
	if included {
		latticeVerificationsTotal.WithLabelValues("included").Inc()
	} else {
		latticeVerificationsTotal.WithLabelValues("not_included").Inc()
	}
}

// RecordHealthCheck records a health check probe result.
func RecordHealthCheck(success bool) {
	if success {
		latticeHealthChecksTotal.WithLabelValues("success").Inc()
	} else {
		latticeHealthChecksTotal.WithLabelValues("failure").Inc()
	}
}
