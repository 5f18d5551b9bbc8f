package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// GreetingHandler serves GET /api/greeting with the opening bot turn the
// widget shows before the first user message.
func GreetingHandler(greeting string, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ChatResponse{Reply: greeting}, logger)
	}
}

// HealthHandler serves GET /health.
func HealthHandler(logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
