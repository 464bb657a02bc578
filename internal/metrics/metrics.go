package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatsync_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seatsync_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ToolCalls tracks MCP tool invocations
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatsync_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	// UpstreamRequests tracks calls to the reservation platform API
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatsync_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"method", "status"},
	)

	// Logins tracks upstream login attempts
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatsync_logins_total",
			Help: "Total number of upstream login attempts",
		},
		[]string{"status"},
	)

	// TokenCacheOps tracks token cache operations
	TokenCacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatsync_token_cache_ops_total",
			Help: "Total number of token cache operations",
		},
		[]string{"op", "result"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware creates an HTTP middleware that records metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// normalizePath normalizes URL paths to avoid high cardinality
func normalizePath(path string) string {
	switch path {
	case "/health", "/ready", "/mcp", "/metrics":
		return path
	default:
		return "other"
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordToolCall records an MCP tool invocation
func RecordToolCall(tool, status string) {
	ToolCalls.WithLabelValues(tool, status).Inc()
}

// RecordUpstreamRequest records one upstream API exchange
func RecordUpstreamRequest(method, status string) {
	UpstreamRequests.WithLabelValues(method, status).Inc()
}

// RecordLogin records an upstream login attempt
func RecordLogin(status string) {
	Logins.WithLabelValues(status).Inc()
}

// RecordTokenCache records a token cache operation
func RecordTokenCache(op, result string) {
	TokenCacheOps.WithLabelValues(op, result).Inc()
}
