// guards: предикаты доступа к защищённым экранам.
//
// Guard не рендерит ничего сам: он возвращает Decision, а адаптер
// транспорта (middleware.Guard) превращает отказ в редирект.
package guards

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// LoginPath: экран входа, цель редиректа при любом отказе.
const LoginPath = "/login"

// Reason: машиночитаемая причина отказа.
type Reason string

const (
	ReasonUnauthenticated      Reason = "unauthenticated"
	ReasonVerificationRequired Reason = "verification_required"
	ReasonProfileUnavailable   Reason = "profile_unavailable"
)

// Decision - результат проверки: разрешить или перенаправить.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

func Allow() Decision { return Decision{Allow: true} }

func RedirectTo(target string, reason Reason) Decision {
	return Decision{Redirect: target, Reason: reason}
}

type Guard func(ctx context.Context) Decision

// SessionChecker: локальная проверка наличия сессии (session.Manager).
type SessionChecker interface {
	IsLoggedIn() bool
}

// ProfileFetcher: запрос профиля текущего пользователя (clients.Client).
type ProfileFetcher interface {
	Profile(ctx context.Context) (models.UserProfile, error)
}

// Authenticated пропускает, если есть access-токен. Без сетевых вызовов.
func Authenticated(s SessionChecker) Guard {
	return func(context.Context) Decision {
		if s.IsLoggedIn() {
			return Allow()
		}
		return RedirectTo(LoginPath, ReasonUnauthenticated)
	}
}

// VerifiedEmail запрашивает профиль и пропускает только подтверждённый адрес.
// Любая ошибка запроса трактуется как отказ; если она вызвана истечением
// сессии, выход уже выполнил сессионный слой транспорта.
func VerifiedEmail(f ProfileFetcher) Guard {
	return func(ctx context.Context) Decision {
		const op = "guards.VerifiedEmail"

		p, err := f.Profile(ctx)
		if err != nil {
			log.From(ctx).Debug("guard_profile_unavailable",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return RedirectTo(LoginPath, ReasonProfileUnavailable)
		}

		if !p.IsVerified {
			return RedirectTo(LoginPath, ReasonVerificationRequired)
		}

		return Allow()
	}
}

// Sequence выполняет guards по порядку; первый отказ окончательный,
// последующие проверки не вызываются.
func Sequence(guards ...Guard) Guard {
	return func(ctx context.Context) Decision {
		for _, g := range guards {
			if d := g(ctx); !d.Allow {
				return d
			}
		}
		return Allow()
	}
}
