// Package errors provides the error responses of the chat service.
//
// Every failure that reaches a client is an *APIError written as JSON with
// an "error" message, the error type, and the request ID:
//
//	{"error": "Internal server error", "type": "internal_error", "request_id": "..."}
//
// The wrapped cause is kept for logging and never serialized.
//
// Basic usage:
//
//	errors.WriteError(w, errors.NewValidationError(requestID, "Invalid request", nil))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the package logger. It starts as a production logger and
// can be replaced with SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger replaces DefaultLogger. A nil logger is ignored.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes errors for clients and logs.
type ErrorType string

const (
	// ValidationError is a malformed client request.
	ValidationError ErrorType = "validation_error"

	// ProviderError is a failure reported by the completion provider.
	ProviderError ErrorType = "provider_error"

	// InternalError is any other unexpected failure.
	InternalError ErrorType = "internal_error"

	// RateLimitError is a client exceeding its request rate.
	RateLimitError ErrorType = "rate_limit_error"

	// NotFoundError is an unknown route.
	NotFoundError ErrorType = "not_found"

	// MethodNotAllowedError is a known route called with the wrong method.
	MethodNotAllowedError ErrorType = "method_not_allowed"
)

// APIError is an error with everything needed to answer the client.
type APIError struct {
	// Message is the client-facing description, serialized as "error".
	Message string `json:"error"`

	Type ErrorType `json:"type"`

	// Code is the HTTP status (not serialized)
	Code int `json:"-"`

	RequestID string `json:"request_id,omitempty"`

	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

// Error combines the type, message and wrapped cause.
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *APIError) Unwrap() error {
	return e.err
}

// Is matches any *APIError of the same type.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError writes err as a JSON response with its status code.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		DefaultLogger.Warn("failed to encode error response", zap.Error(encErr))
	}
}

// ErrorWithType is a drop-in replacement for http.Error that writes an
// APIError of the given type. The request ID is taken from the response
// headers when the RequestID middleware has set it.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	WriteError(w, &APIError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
