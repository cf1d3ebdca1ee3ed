package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logSlot lets RequireAuth report the caller back to RequestLogger, which
// runs outside it.
type logSlot struct {
	userID string
}

type logSlotKey struct{}

func recordUser(r *http.Request, userID string) {
	if slot, ok := r.Context().Value(logSlotKey{}).(*logSlot); ok {
		slot.userID = userID
	}
}

// RequestLogger logs one line per request. Server errors log at error
// level, client errors at warn.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			slot := &logSlot{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logSlotKey{}, slot)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zapcore.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr),
			}
			if slot.userID != "" {
				fields = append(fields, zap.String("user_id", slot.userID))
			}

			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}
