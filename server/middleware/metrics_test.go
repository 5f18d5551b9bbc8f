package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/collectwise/debtchat/server/metrics"
	"github.com/collectwise/debtchat/server/middleware"
)

func TestPrometheusMetrics(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		path           string
		expectedCode   int
		expectedRoute  string
		expectedStatus string
		errorType      string
	}{
		{
			name: "success request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			path:           "/api/chat",
			expectedCode:   http.StatusOK,
			expectedRoute:  "/api/chat",
			expectedStatus: "200",
		},
		{
			name: "client error request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			path:           "/api/chat",
			expectedCode:   http.StatusBadRequest,
			expectedRoute:  "/api/chat",
			expectedStatus: "400",
			errorType:      "client_error",
		},
		{
			name: "server error request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			path:           "/api/chat",
			expectedCode:   http.StatusInternalServerError,
			expectedRoute:  "/api/chat",
			expectedStatus: "500",
			errorType:      "server_error",
		},
		{
			name: "unknown path shares one label",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			path:           "/wp-admin/setup.php",
			expectedCode:   http.StatusNotFound,
			expectedRoute:  "unmatched",
			expectedStatus: "404",
			errorType:      "client_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewMetrics()

			r := chi.NewRouter()
			r.Use(middleware.PrometheusMetrics(m))
			r.Post("/api/chat", tt.handler)

			req := httptest.NewRequest("POST", tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(tt.expectedRoute, tt.expectedStatus)))
			assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveRequests.WithLabelValues("all")))

			if tt.errorType != "" {
				assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(tt.errorType)))
			}
		})
	}
}
