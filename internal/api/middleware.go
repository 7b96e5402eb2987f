package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"stmadison/internal/logging"
	"stmadison/internal/metrics"
)

const traceHeader = "X-Trace-ID"

// LoggerMiddleware attaches a trace-scoped logger to the request context and
// logs one line per finished request. A valid incoming X-Trace-ID is reused.
func LoggerMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.NewString()
			}
			reqLogger := logger.With("trace_id", traceID)
			ctx := logging.WithContext(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set(traceHeader, traceID)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			reqLogger.Log(ctx, level, "request finished",
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status_code", status,
				"bytes_written", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// MetricsMiddleware records request counts and latency by chi route pattern,
// so path parameters do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(route, r.Method, strconv.Itoa(status), time.Since(start))
		})
	}
}
