package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name           string
		providedReqID  string
		shouldBeReused bool
	}{
		{
			name:           "generates new request ID",
			providedReqID:  "",
			shouldBeReused: false,
		},
		{
			name:           "reuses provided request ID",
			providedReqID:  "test-id-123",
			shouldBeReused: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.providedReqID != "" {
				req.Header.Set(RequestIDHeader, tt.providedReqID)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			respID := rec.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, respID)
			assert.Equal(t, respID, seen, "context and header must agree")

			if tt.shouldBeReused {
				assert.Equal(t, tt.providedReqID, respID)
			} else {
				assert.NotEqual(t, tt.providedReqID, respID)
			}
		})
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestRequestTimer(t *testing.T) {
	handler := RequestTimer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	respTime := rec.Header().Get("X-Response-Time")
	require.NotEmpty(t, respTime)

	duration, err := time.ParseDuration(respTime)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RequestID(Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})))

	req := httptest.NewRequest("POST", "/api/chat", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "internal_error", body["type"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["request_id"])
	assert.NotContains(t, rec.Body.String(), "test panic")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestID(Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest("GET", "/brew", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/brew", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["size"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), fields["request_id"])
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		method         string
		origin         string
		expectedStatus int
		expectedOrigin string
	}{
		{
			name:           "preflight request",
			allowed:        []string{"*"},
			method:         "OPTIONS",
			origin:         "http://widget.example",
			expectedStatus: http.StatusNoContent,
			expectedOrigin: "*",
		},
		{
			name:           "normal request",
			allowed:        []string{"*"},
			method:         "POST",
			expectedStatus: http.StatusOK,
			expectedOrigin: "*",
		},
		{
			name:           "listed origin is echoed",
			allowed:        []string{"http://widget.example/"},
			method:         "POST",
			origin:         "http://widget.example",
			expectedStatus: http.StatusOK,
			expectedOrigin: "http://widget.example",
		},
		{
			name:           "unlisted origin gets no allow header",
			allowed:        []string{"http://widget.example"},
			method:         "POST",
			origin:         "http://evil.example",
			expectedStatus: http.StatusOK,
			expectedOrigin: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
			assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		})
	}
}
