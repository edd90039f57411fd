package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	// RequestIDHeader carries the per-request trace id in both directions.
	RequestIDHeader = "X-Request-Id"
	// ReplayedRequestIDHeader names the request whose stored response an
	// idempotent replay returns.
	ReplayedRequestIDHeader = "X-Replayed-Request-Id"

	ctxRequestID contextKey = "request_id"
)

// RequestID adopts the caller's X-Request-Id when it is a plausible id and
// mints a uuid otherwise. The id is echoed on the response, stored on the
// context and attached to every log line of the request.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || !validSessionID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := context.WithValue(r.Context(), ctxRequestID, reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}
