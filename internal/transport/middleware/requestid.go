package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID reuses an incoming trace id or mints one, echoes it back and
// tags the request logger with it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logger.With(ctx, "request_id", reqID)
		}

		w.Header().Set(TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
