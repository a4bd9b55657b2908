package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// ErrRequestBudget: причина отмены контекста, когда истёк бюджет
// обработки входящего запроса (timeouts.service).
var ErrRequestBudget = errors.New("request budget exceeded")

// Timeout ограничивает обработку запроса бюджетом d. Более ранний дедлайн
// входящего контекста сохраняется. Если обработка упёрлась именно в этот
// бюджет, пишется запись request_budget_exceeded. d <= 0 делает мидлвар no-op.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeoutCause(r.Context(), d, ErrRequestBudget)
			defer cancel()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(context.Cause(ctx), ErrRequestBudget) {
				log.From(ctx).Warn("request_budget_exceeded",
					slog.String("path", r.URL.Path),
					slog.Duration("budget", d),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
		})
	}
}
