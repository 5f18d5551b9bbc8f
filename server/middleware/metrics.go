package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/collectwise/debtchat/server/metrics"
)

// PrometheusMetrics middleware records HTTP metrics. Requests are labeled by
// route pattern so unknown paths share a single label.
func PrometheusMetrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			m.ActiveRequests.WithLabelValues("all").Inc()
			defer m.ActiveRequests.WithLabelValues("all").Dec()

			next.ServeHTTP(ww, r)

			endpoint := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

			if status >= 500 {
				m.ErrorsTotal.WithLabelValues("server_error").Inc()
			} else if status >= 400 {
				m.ErrorsTotal.WithLabelValues("client_error").Inc()
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
		return "unmatched"
	}
	return r.URL.Path
}
