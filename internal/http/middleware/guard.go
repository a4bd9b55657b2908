package middleware

import (
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/draftmail/internal/errors"
	"github.com/pribylovaa/draftmail/internal/guards"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// Guard пропускает запрос к защищённому экрану только при разрешающем
// решении guard. Отказ отдаётся как 303 See Other на Decision.Redirect.
func Guard(g guards.Guard) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g(r.Context())
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}

			log.From(r.Context()).Info("guard_redirect",
				slog.String("path", r.URL.Path),
				slog.String("reason", string(d.Reason)),
				slog.String("redirect", d.Redirect),
			)
			apierrors.WriteRedirect(w, r, d.Redirect, string(d.Reason))
		})
	}
}
