// ABOUTME: Prometheus request metrics for the /api endpoint
// ABOUTME: Counts requests by action and status, times them by action

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spektr_api_requests_total",
		Help: "API requests by action and response status.",
	}, []string{"action", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spektr_api_request_duration_seconds",
		Help:    "API request latency by action.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latencies per action.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")
		if action == "" {
			action = "unknown"
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		requestsTotal.WithLabelValues(action, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	})
}
