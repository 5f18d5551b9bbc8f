package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/collectwise/debtchat/errors"
	"go.uber.org/zap"
)

// Recovery middleware turns a panic into a 500 internal error response and
// logs it with the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					requestID := GetRequestID(r.Context())
					logger.Error("Panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("request_id", requestID),
					)
					errors.WriteError(w, errors.NewInternalError(
						requestID,
						fmt.Errorf("panic: %v", rec),
					))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
