package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StatusRecorder receives the status code of every response
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// NewRequestLogger attaches a request-scoped logger carrying a request id to the
// context and logs each completed request at a level matching its status
func NewRequestLogger(logger *zap.Logger, statuses StatusRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			reqLogger := logger.With(
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))

			w.Header().Set("X-Request-Id", requestID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if statuses != nil {
				statuses.RecordHTTPStatus(status)
			}

			level := zapcore.InfoLevel
			if status >= 500 {
				level = zapcore.ErrorLevel
			} else if status >= 400 {
				level = zapcore.WarnLevel
			}
			reqLogger.Check(level, "http_request").Write(
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// NewRecoveryMiddleware turns a panic into the generic 500 response
func NewRecoveryMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logging.FromContext(r.Context(), logger).Error("Panic recovered",
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()))
					writeError(w, core.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
