package interceptors

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/draftmail/internal/metrics"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
	"github.com/pribylovaa/draftmail/internal/pkg/redact"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRefreshToken  = "X-Refresh-Token"

	bearerPrefix = "Bearer "
)

// SessionController: то, что сессионный слой требует от session.Manager.
type SessionController interface {
	AccessToken() string
	RefreshToken() string
	Refresh(ctx context.Context) error
	Logout()
}

// Navigator принимает сигнал «перейти на экран» (например, на вход после
// истечения сессии). Реализация решает, как донести его до пользователя.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

type NavigatorFunc func(ctx context.Context, target string)

func (f NavigatorFunc) Navigate(ctx context.Context, target string) { f(ctx, target) }

// Paths задаёт классификацию эндпойнтов по суффиксу пути URL.
type Paths struct {
	// Refresh: эндпойнт обновления пары; получает X-Refresh-Token.
	Refresh string
	// Public: эндпойнты без учётных данных (вход, регистрация, подтверждение по ссылке).
	Public []string
}

func DefaultPaths() Paths {
	return Paths{
		Refresh: "/auth/refresh",
		Public:  []string{"/auth/login", "/auth/register", "/auth/verify-email"},
	}
}

type endpointKind int

const (
	kindProtected endpointKind = iota
	kindRefresh
	kindPublic
)

func (p Paths) classify(path string) endpointKind {
	path = strings.TrimSuffix(path, "/")
	if p.Refresh != "" && strings.HasSuffix(path, p.Refresh) {
		return kindRefresh
	}
	for _, pub := range p.Public {
		if pub != "" && strings.HasSuffix(path, pub) {
			return kindPublic
		}
	}
	return kindProtected
}

type AuthOptions struct {
	Paths     Paths
	Navigator Navigator
	// LoginPath: куда навигировать после неудачного обновления. По умолчанию "/login".
	LoginPath string
	Metrics   *metrics.Metrics
	// Origin: схема и хост бэкенда. Учётные данные уходят только на него;
	// запросы на другой хост (например, после редиректа) идут без них.
	// nil отключает проверку.
	Origin *url.URL
}

// sameOrigin сообщает, адресован ли запрос бэкенду из opts.Origin.
func (o AuthOptions) sameOrigin(u *url.URL) bool {
	if o.Origin == nil {
		return true
	}
	return strings.EqualFold(u.Scheme, o.Origin.Scheme) && strings.EqualFold(u.Host, o.Origin.Host)
}

// Auth: сессионный слой исходящих вызовов.
//
// Контракт по классу эндпойнта:
//  1. refresh - добавляет X-Refresh-Token: Bearer <refresh> (если токен есть),
//     удаляет Authorization; 401 не обрабатывается;
//  2. public: отправляется без заголовков с учётными данными;
//  3. остальные - Authorization: Bearer <access> (если токен есть), затем:
//     - ответ не 401 или транспортная ошибка: возвращается как есть;
//     - 401 на первой попытке: sess.Refresh; при успехе исходный запрос
//       клонируется с токеном, прочитанным ПОСЛЕ обновления, и отправляется
//       ровно один раз, его результат окончательный; при неудаче :
//       sess.Logout, Navigate(LoginPath) и возврат исходного ответа 401.
//
// Запрос на хост, отличный от opts.Origin, отправляется без учётных
// данных и без обработки 401.
//
// Отмена контекста вызывающего во время обновления не считается отказом
// сессии: возвращается ошибка контекста, выход не выполняется.
func Auth(sess SessionController, opts AuthOptions) Middleware {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.Paths.Refresh == "" && len(opts.Paths.Public) == 0 {
		opts.Paths = DefaultPaths()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if !opts.sameOrigin(req.URL) {
				log.From(req.Context()).Warn("auth_foreign_host",
					slog.String("op", "interceptors.Auth"),
					slog.String("host", req.URL.Host),
				)
				return next.RoundTrip(stripCredentials(req))
			}

			switch opts.Paths.classify(req.URL.Path) {
			case kindRefresh:
				out := req.Clone(req.Context())
				out.Header.Del(HeaderAuthorization)
				if rt := sess.RefreshToken(); rt != "" {
					out.Header.Set(HeaderRefreshToken, bearerPrefix+rt)
				}
				return next.RoundTrip(out)

			case kindPublic:
				return next.RoundTrip(stripCredentials(req))
			}

			return roundTripProtected(next, sess, opts, req)
		})
	}
}

func stripCredentials(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Del(HeaderAuthorization)
	out.Header.Del(HeaderRefreshToken)
	return out
}

func roundTripProtected(next http.RoundTripper, sess SessionController, opts AuthOptions, req *http.Request) (*http.Response, error) {
	const op = "interceptors.Auth"

	ctx := req.Context()
	lg := log.From(ctx).With(slog.String("op", op), slog.String("path", req.URL.Path))

	a, err := newAttempt(req)
	if err != nil {
		return nil, err
	}

	first, err := a.build()
	if err != nil {
		return nil, err
	}
	withBearer(first, sess.AccessToken())

	resp, err := next.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		a.to(stateDone)
		return resp, err
	}

	a.to(stateRefreshing)
	lg.Debug("auth_refresh_after_401")

	if rerr := sess.Refresh(ctx); rerr != nil {
		a.to(stateDone)

		if cerr := ctx.Err(); cerr != nil {
			drain(resp)
			return nil, cerr
		}

		opts.Metrics.Retry(metrics.RetryGaveUp)
		lg.Warn("auth_session_expired", slog.String("err", rerr.Error()))

		sess.Logout()
		if opts.Navigator != nil {
			opts.Navigator.Navigate(ctx, opts.LoginPath)
		}
		return resp, nil
	}

	drain(resp)
	a.to(stateRetrying)

	retry, err := a.build()
	if err != nil {
		a.to(stateDone)
		return nil, err
	}
	access := sess.AccessToken()
	withBearer(retry, access)

	lg.Debug("auth_retry", slog.String("access", redact.Token(access)))

	resp, err = next.RoundTrip(retry)
	a.to(stateDone)

	if err == nil && resp.StatusCode != http.StatusUnauthorized {
		opts.Metrics.Retry(metrics.RetrySucceeded)
	} else {
		opts.Metrics.Retry(metrics.RetryFailed)
	}

	return resp, err
}

// withBearer выставляет Authorization на копии запроса; пустой токен
// означает отсутствие заголовка.
func withBearer(req *http.Request, token string) {
	req.Header.Del(HeaderRefreshToken)
	if token == "" {
		req.Header.Del(HeaderAuthorization)
		return
	}
	req.Header.Set(HeaderAuthorization, bearerPrefix+token)
}

// drain освобождает соединение отброшенного ответа.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
