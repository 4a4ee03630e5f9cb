package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

// HTTPMiddleware creates a logging middleware for HTTP requests
func HTTPMiddleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger
			if logger.zap != nil {
				reqLogger = &Logger{zap: logger.zap.WithHTTPRequest(r)}
			} else {
				reqLogger = logger.WithFields(map[string]interface{}{
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": r.Header.Get("X-Request-ID"),
				})
			}

			reqLogger.Debug("Request received")

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			if logger.zap != nil {
				reqLogger = &Logger{zap: reqLogger.zap.WithDuration(duration).with(
					zap.Int("status", wrapped.status),
					zap.Int("size", wrapped.size),
				)}
			} else {
				reqLogger = reqLogger.WithFields(map[string]interface{}{
					"status":      wrapped.status,
					"size":        wrapped.size,
					"duration_ms": float64(duration.Nanoseconds()) / 1e6,
				})
			}

			switch {
			case wrapped.status >= 500:
				reqLogger.Error("Request failed with server error")
			case wrapped.status >= 400:
				reqLogger.Warn("Request failed with client error")
			default:
				reqLogger.Debug("Request completed")
			}
		})
	}
}
