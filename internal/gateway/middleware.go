package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/llamagate/llamagate/internal/errors"
	"github.com/llamagate/llamagate/internal/metrics"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDMiddleware assigns each request an ID, honoring a caller-supplied
// X-Request-Id and generating one otherwise. The ID is echoed in the response
// and stored in the request context for the logging middleware.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// loggingMiddleware logs each request and records it on the collector.
func loggingMiddleware(next http.Handler, collector *metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		id, _ := r.Context().Value(requestIDKey).(string)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", duration.String(),
			"remote", r.RemoteAddr,
			"request_id", id,
		)
		if collector != nil {
			collector.RecordRequest(r.URL.Path, lrw.statusCode, duration)
		}
	})
}

// recoveryMiddleware catches panics and returns a 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec, "stack", string(debug.Stack()))
				apierrors.WriteJSONError(w, http.StatusInternalServerError, apierrors.CodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter captures the status code written by the handler.
// It forwards Flush so streaming relays keep working through the chain.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
