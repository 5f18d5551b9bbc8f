package errors

import (
	"errors"
	"net/http"
)

// Client-facing messages. Provider and internal failures share fixed texts so
// that no upstream detail reaches the caller.
const (
	MsgInvalidHistory = "Invalid request: history is required and must be an array"
	MsgProvider       = "Completion provider error occurred"
	MsgInternal       = "Internal server error"
	MsgRateLimited    = "Rate limit exceeded"
)

// NewValidationError creates a 400 error for a malformed request.
//
// Example:
//
//	err := NewValidationError("req_123", MsgInvalidHistory, map[string]interface{}{
//	    "field": "history",
//	})
func NewValidationError(requestID, message string, details map[string]interface{}) *APIError {
	return &APIError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   details,
	}
}

// NewProviderError creates a 500 error for a failed completion call. The
// message is always MsgProvider; err is kept only for logging.
func NewProviderError(requestID string, err error) *APIError {
	return &APIError{
		Type:      ProviderError,
		Message:   MsgProvider,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewInternalError creates a 500 error for any other failure.
func NewInternalError(requestID string, err error) *APIError {
	return &APIError{
		Type:      InternalError,
		Message:   MsgInternal,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewRateLimitError creates a 429 error telling the client when to retry.
func NewRateLimitError(requestID string, retryAfter int) *APIError {
	return &APIError{
		Type:      RateLimitError,
		Message:   MsgRateLimited,
		Code:      http.StatusTooManyRequests,
		RequestID: requestID,
		Details: map[string]interface{}{
			"retry_after": retryAfter,
		},
	}
}

// As is a wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
