package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/draftmail/internal/clients/interceptors"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// Logging кладёт в контекст request-scoped логгер (с request_id) и пишет
// по одной записи "http" на запрос. Ставится после RequestID.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := l
			if rid := r.Header.Get(interceptors.HeaderRequestID); rid != "" {
				reqLog = reqLog.With(slog.String("request_id", rid))
			}
			r = r.WithContext(log.Into(r.Context(), reqLog))

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			reqLog.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			)
		})
	}
}
