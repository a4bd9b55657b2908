// clients: типизированный REST-клиент бэкенда генерации писем.
//
// Все вызовы проходят через цепочку RoundTripper'ов:
// metadata -> auth (сессия, refresh-then-retry) -> logging -> base.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/draftmail/internal/clients/interceptors"
	"github.com/pribylovaa/draftmail/internal/config"
	"github.com/pribylovaa/draftmail/internal/metrics"
	"github.com/pribylovaa/draftmail/internal/models"
)

// Пути REST-контракта бэкенда.
const (
	pathRegister           = "/api/auth/register"
	pathLogin              = "/api/auth/login"
	pathRefresh            = "/api/auth/refresh"
	pathMe                 = "/api/auth/me"
	pathVerifyEmail        = "/api/auth/verify-email"
	pathVerificationStatus = "/api/auth/verification-status"
	pathResendVerification = "/api/auth/resend-verification"
	pathGenerate           = "/api/generate"
	pathEmails             = "/api/emails"
	pathProfile            = "/api/user/profile"
	pathChangePassword     = "/api/user/change-password"
)

// maxErrorBody: сколько байт тела ошибки читается для разбора detail.
const maxErrorBody = 64 << 10

type Client struct {
	base *url.URL
	http *http.Client
}

type options struct {
	transport http.RoundTripper
	navigator interceptors.Navigator
	metrics   *metrics.Metrics
}

type Option func(*options)

// WithTransport подменяет базовый транспорт (тесты, прокси).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func WithNavigator(n interceptors.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New собирает клиент поверх сессии sess. Client.Refresh реализует
// session.Refresher; подключение выполняет вызывающий (SetRefresher).
func New(cfg config.BackendConfig, log *slog.Logger, sess interceptors.SessionController, opts ...Option) (*Client, error) {
	const op = "clients.New"

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q", op, cfg.BaseURL)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	paths := interceptors.Paths{
		Refresh: pathRefresh,
		Public:  []string{pathLogin, pathRegister, pathVerifyEmail},
	}

	transport := interceptors.Chain(o.transport,
		interceptors.WithMetadata(cfg.UserAgent),
		interceptors.Auth(sess, interceptors.AuthOptions{
			Paths:     paths,
			Navigator: o.navigator,
			Metrics:   o.metrics,
			Origin:    &url.URL{Scheme: base.Scheme, Host: base.Host},
		}),
		interceptors.Logging(log),
	)

	return &Client{
		base: base,
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, pathRegister, nil, in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, in models.LoginRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, pathLogin, nil, in, &out)
	return out, err
}

// Refresh обменивает текущий refresh-токен на новую пару. Сам токен
// в заголовок X-Refresh-Token кладёт сессионный слой транспорта.
func (c *Client) Refresh(ctx context.Context) (models.TokenPair, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, pathRefresh, nil, struct{}{}, &out); err != nil {
		return models.TokenPair{}, err
	}
	return out.Pair(), nil
}

func (c *Client) Me(ctx context.Context) (models.UserProfile, error) {
	var out models.UserProfile
	err := c.do(ctx, http.MethodGet, pathMe, nil, nil, &out)
	return out, err
}

// VerifyEmail подтверждает адрес по токену из письма.
func (c *Client) VerifyEmail(ctx context.Context, token, email string) (models.VerificationStatus, error) {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)

	var out models.VerificationStatus
	err := c.do(ctx, http.MethodGet, pathVerifyEmail, q, nil, &out)
	return out, err
}

func (c *Client) VerificationStatus(ctx context.Context) (models.VerificationStatus, error) {
	var out models.VerificationStatus
	err := c.do(ctx, http.MethodGet, pathVerificationStatus, nil, nil, &out)
	return out, err
}

func (c *Client) ResendVerification(ctx context.Context) (models.VerificationStatus, error) {
	var out models.VerificationStatus
	err := c.do(ctx, http.MethodPost, pathResendVerification, nil, struct{}{}, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (models.UserProfile, error) {
	var out models.UserProfile
	err := c.do(ctx, http.MethodGet, pathProfile, nil, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) (models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, http.MethodPatch, pathProfile, nil, in, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, in models.ChangePasswordRequest) (models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, http.MethodPost, pathChangePassword, nil, in, &out)
	return out, err
}

func (c *Client) GenerateEmail(ctx context.Context, in models.GenerateRequest) (models.EmailDraft, error) {
	var out models.EmailDraft
	err := c.do(ctx, http.MethodPost, pathGenerate, nil, in, &out)
	return out, err
}

func (c *Client) Emails(ctx context.Context) ([]models.EmailDraft, error) {
	out := []models.EmailDraft{}
	err := c.do(ctx, http.MethodGet, pathEmails, nil, nil, &out)
	return out, err
}

// do выполняет JSON-запрос.
//
// Ошибки:
//   - статус не 2xx: *APIError (errors.Is по сентинелам пакета);
//   - транспорт/таймаут: ErrUnavailable с исходной причиной;
//   - тело 2xx не разбирается: ошибка декодирования; пустое тело допустимо.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := "clients." + method + " " + path

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s: %w", op, &APIError{Status: resp.StatusCode, Detail: parseDetail(raw)})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode: %w", op, err)
	}

	return nil
}

// IsAuthError: ошибка означает потерю сессии (401 после попытки обновления).
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// Detail извлекает сообщение бэкенда, если ошибка пришла от него.
func Detail(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return strings.TrimSpace(ae.Detail)
	}
	return ""
}
