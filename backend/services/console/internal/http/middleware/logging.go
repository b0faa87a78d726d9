package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/metrics"
)

const unmatchedRoute = "unmatched"

// LoggingMiddleware logs every request and counts it by route. Requests no route claimed are
// counted as "unmatched".
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			r, info := withRequestInfo(r)
			start := time.Now()

			next.ServeHTTP(rw, r)

			route := info.route
			if route == "" {
				route = unmatchedRoute
			}
			metrics.RecordHTTP(r.Method, route, rw.status)
			if route == "/metrics" || route == "/health" {
				return
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", remoteHost(r)),
			}
			if info.workspaceID != "" {
				fields = append(fields, zap.String("workspace_id", info.workspaceID))
			}
			logger.Info("http request", fields...)
		})
	}
}
