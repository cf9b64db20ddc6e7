package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpMetricsOnce sync.Once
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
)

func registerHTTPMetrics() {
	httpMetricsOnce.Do(func() {
		httpRequests = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goaltracker_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goaltracker_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)
	})
}

// Metrics records request counts and latency keyed by the chi route pattern.
func Metrics(next http.Handler) http.Handler {
	registerHTTPMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status())).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
