// Package metrics holds the Prometheus collectors of the chat service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Completion outcomes recorded by CompletionsTotal.
const (
	OutcomeReply    = "reply"
	OutcomeFallback = "fallback"
	OutcomeProvider = "provider_error"
	OutcomeInternal = "internal_error"
	OutcomeCanceled = "canceled"
)

// Metrics encapsulates Prometheus metrics for the server.
type Metrics struct {
	registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ActiveRequests     *prometheus.GaugeVec
	ErrorsTotal        *prometheus.CounterVec
	RateLimitHits      prometheus.Counter
	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration prometheus.Histogram
	TranscriptTokens   prometheus.Histogram
	TranscriptMessages prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debtchat_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debtchat_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		ActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "debtchat_http_active_requests",
				Help: "Number of currently active HTTP requests",
			},
			[]string{"endpoint"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debtchat_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type"},
		),
		RateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "debtchat_rate_limit_hits_total",
				Help: "Total number of rate limited requests",
			},
		),
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debtchat_completions_total",
				Help: "Completion calls by outcome",
			},
			[]string{"outcome"},
		),
		CompletionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "debtchat_completion_duration_seconds",
				Help:    "Latency of completion calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
		),
		TranscriptTokens: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "debtchat_transcript_tokens",
				Help:    "Estimated tokens per transcript sent for completion",
				Buckets: prometheus.ExponentialBuckets(64, 2, 10),
			},
		),
		TranscriptMessages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "debtchat_transcript_messages",
				Help:    "Messages per transcript sent for completion",
				Buckets: prometheus.LinearBuckets(1, 4, 12),
			},
		),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	for _, outcome := range []string{OutcomeReply, OutcomeFallback, OutcomeProvider, OutcomeInternal, OutcomeCanceled} {
		m.CompletionsTotal.WithLabelValues(outcome).Add(0)
	}

	return m
}

// Handler returns a handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
