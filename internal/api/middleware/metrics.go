package middleware

import (
	"net/http"
	"time"

	"github.com/holden/retroboard/internal/metrics"
)

// Metrics records request durations into the Prometheus collector.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			collector.ObserveHTTPRequest(r.Method, wrapped.status, time.Since(start))
		})
	}
}
