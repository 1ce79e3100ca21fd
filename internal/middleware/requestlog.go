package middleware

import (
	"fmt"
	"net/http"
	"time"

	"event-site/internal/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger attaches a logger tagged with the request id to the
// request context and logs every completed request. It must run after
// chi's RequestID middleware.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With(map[string]interface{}{"request_id": chimw.GetReqID(r.Context())})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logger.NewContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := reqLog.With(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			})
			msg := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			if status >= http.StatusInternalServerError {
				entry.Warn(msg)
				return
			}
			entry.Debug(msg)
		})
	}
}
