package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/PrathameshGBhat/foodapp-Backend/api/responses"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

const (
	requestIDHeader     = responses.RequestIDHeader
	correlationIDHeader = "X-Correlation-Id"
	maxRequestIDLength  = 128
)

// RequestID propagates the caller's request id (or correlation id) and mints a
// uuid when neither is usable. The id is echoed on the response and bound to
// the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := incomingRequestID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func incomingRequestID(r *http.Request) string {
	for _, header := range []string{requestIDHeader, correlationIDHeader} {
		id := strings.TrimSpace(r.Header.Get(header))
		if id != "" && len(id) <= maxRequestIDLength {
			return id
		}
	}
	return uuid.NewString()
}
