package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectwise/debtchat/config"
	"github.com/collectwise/debtchat/server/metrics"
	"github.com/collectwise/debtchat/server/middleware"
)

func TestRateLimitMetrics(t *testing.T) {
	m := metrics.NewMetrics()

	// One request per minute leaves no room for refill during the test.
	limiter := middleware.NewRateLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		Burst:             10,
	}, m)
	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	testIP := "192.0.2.10"

	// Make 11 requests (1 more than the burst)
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest("POST", "/api/chat", nil)
		req.RemoteAddr = testIP + ":1234"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if i < 10 {
			assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
			continue
		}

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limit_error", body["type"])
		details, ok := body["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Greater(t, details["retry_after"], float64(0))
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitHits))
}

func TestRateLimitIsPerClient(t *testing.T) {
	limiter := middleware.NewRateLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		Burst:             1,
	}, nil)
	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest("POST", "/api/chat", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2"), "other clients keep their own budget")
}
