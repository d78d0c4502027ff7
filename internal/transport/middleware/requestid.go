package middleware

import (
	"net/http"

	"github.com/quanlynhankhau/registry-api/pkg/logger"

	"github.com/google/uuid"
)

// RequestID assigns each request a trace id, honoring one supplied by the
// caller. Webhook deliveries keep their id across retries this way.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
