package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.CompletionsTotal.WithLabelValues(OutcomeReply).Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.CompletionsTotal.WithLabelValues(OutcomeReply)))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.CompletionsTotal.WithLabelValues(OutcomeReply)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.CompletionsTotal.WithLabelValues(OutcomeFallback).Inc()
	m.TranscriptMessages.Observe(3)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `debtchat_completions_total{outcome="fallback"} 1`)
	assert.Contains(t, string(body), "debtchat_transcript_messages_count 1")
	assert.Contains(t, string(body), "go_goroutines")
}
