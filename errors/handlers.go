package errors

import (
	"go.uber.org/zap"
)

// LogError logs err with its request ID. APIErrors are logged with their
// type, status and wrapped cause.
func LogError(logger *zap.Logger, err error, requestID string) {
	var apiErr *APIError
	if As(err, &apiErr) {
		fields := []zap.Field{
			zap.String("error_type", string(apiErr.Type)),
			zap.String("message", apiErr.Message),
			zap.Int("code", apiErr.Code),
			zap.String("request_id", requestID),
		}
		if apiErr.err != nil {
			fields = append(fields, zap.NamedError("cause", apiErr.err))
		}
		if len(apiErr.Details) > 0 {
			fields = append(fields, zap.Any("details", apiErr.Details))
		}
		logger.Error("request error", fields...)
		return
	}
	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
