package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"pcms/pkg/requestcontext"
)

// RequestContext carries the chi request ID and a single request-scoped
// "now" into requestcontext so everything downstream stamps the same values.
// Must run after middleware.RequestID.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
