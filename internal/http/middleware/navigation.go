package middleware

import (
	"net/http"

	"github.com/pribylovaa/draftmail/internal/http/navigation"
)

// Navigation кладёт в контекст запроса пустой navigation.Recorder.
// Сессионный слой исходящих вызовов пишет в него цель при потере сессии,
// а errors.WriteError превращает её в 401/session_expired.
func Navigation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := navigation.Into(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
