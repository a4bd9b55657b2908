// session управляет жизненным циклом учётных данных клиента:
// выдача и сохранение пары токенов, проверка «вошёл ли пользователь»,
// обновление пары через refresh-эндпойнт и полный выход.
//
// Manager - явный объект с собственным жизненным циклом: создаётся при старте
// поверх уже открытого хранилища (credentials.Open читает сохранённое
// состояние) и внедряется в интерсептор запросов и guards.
//
// Конкурентные вызовы Refresh:
//   - по умолчанию каждый вызов делает собственный сетевой запрос;
//     при ротации refresh-токена на бэкенде второй параллельный вызов
//     может получить отказ, хотя первый прошёл успешно;
//   - WithSingleFlight(true) объединяет одновременные вызовы в один
//     запрос, результат которого получают все ожидающие.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/draftmail/internal/metrics"
	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
	"github.com/pribylovaa/draftmail/internal/pkg/redact"
)

var (
	// ErrRefreshFailed: обновить пару не удалось; для сессии это фатально:
	// вызывающий обязан выполнить Logout.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoRefreshToken: refresh-токена нет, сетевой вызов не выполнялся.
	ErrNoRefreshToken = fmt.Errorf("%w: no refresh token", ErrRefreshFailed)

	// ErrMalformedPair: бэкенд вернул пару с пустой половиной.
	ErrMalformedPair = errors.New("malformed token pair")

	// ErrSessionEnded: пока шло обновление, сессия завершилась (Logout);
	// полученная пара отброшена.
	ErrSessionEnded = fmt.Errorf("%w: session ended during refresh", ErrRefreshFailed)
)

// Store: хранилище, поверх которого работает Manager (см. credentials.Store).
type Store interface {
	SetTokens(access, refresh string)
	ReplaceTokensIf(prevRefresh, access, refresh string) bool
	Tokens() (access, refresh string)
	Access() string
	Refresh() string
	Clear()
	SetPendingEmail(email string)
	PendingEmail() string
}

// Refresher выполняет сетевой вызов обновления пары токенов.
// Реализуется REST-клиентом (clients.Client).
type Refresher interface {
	Refresh(ctx context.Context) (models.TokenPair, error)
}

// State: логическое состояние сессии.
type State struct {
	Authenticated bool
	Tokens        models.TokenPair
}

func (s State) String() string {
	if s.Authenticated {
		return "authenticated"
	}

	return "anonymous"
}

// Manager владеет учётными данными сессии.
type Manager struct {
	store Store

	mu        sync.RWMutex
	refresher Refresher

	singleFlight bool
	group        singleflight.Group

	log     *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Manager)

// WithSingleFlight включает объединение конкурентных Refresh.
func WithSingleFlight(on bool) Option {
	return func(m *Manager) { m.singleFlight = on }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// New создаёт Manager поверх хранилища.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SetRefresher подключает сетевой вызов обновления. Отдельный сеттер разрывает
// цикл зависимостей: REST-клиент строится поверх интерсептора, которому
// уже нужен Manager.
func (m *Manager) SetRefresher(r Refresher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresher = r
}

// SetTokens безусловно сохраняет новую пару, перезаписывая предыдущую.
func (m *Manager) SetTokens(access, refresh string) {
	m.store.SetTokens(access, refresh)
}

// IsLoggedIn: true, если есть access-токен. Валидность не проверяется:
// просроченный токен считается «входом», пока запрос не докажет обратное.
func (m *Manager) IsLoggedIn() bool {
	return m.store.Access() != ""
}

func (m *Manager) AccessToken() string  { return m.store.Access() }
func (m *Manager) RefreshToken() string { return m.store.Refresh() }

// Tokens возвращает пару, прочитанную атомарно.
func (m *Manager) Tokens() models.TokenPair {
	access, refresh := m.store.Tokens()
	return models.TokenPair{Access: access, Refresh: refresh}
}

// State выводит логическое состояние из хранилища.
func (m *Manager) State() State {
	pair := m.Tokens()
	if pair.Access == "" {
		return State{}
	}

	return State{Authenticated: true, Tokens: pair}
}

// AccessExpiresAt читает claim exp access-токена БЕЗ проверки подписи.
// Только для информации (логи, /session); на IsLoggedIn не влияет.
func (m *Manager) AccessExpiresAt() (time.Time, bool) {
	tok := m.store.Access()
	if tok == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

// Refresh обменивает refresh-токен на новую пару.
//
// Контракт:
//  1. refresh-токена нет: ErrNoRefreshToken без сетевого вызова;
//  2. ошибка бэкенда: ErrRefreshFailed (с причиной), хранилище не меняется;
//  3. успех: новая пара записывается, только если refresh-токен, с которым
//     шёл запрос, всё ещё текущий. Если за это время был Logout: ErrSessionEnded,
//     пара отбрасывается. Если пару уже сменил другой вызов: успех, в
//     хранилище остаётся его пара.
//
// Очистку хранилища при неудаче выполняет вызывающий (интерсептор).
func (m *Manager) Refresh(ctx context.Context) error {
	const op = "session.Refresh"

	if m.store.Refresh() == "" {
		m.metrics.Refresh(metrics.RefreshNoToken)
		log.From(ctx).Debug("refresh_skipped_no_token", slog.String("op", op))
		return fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	if !m.singleFlight {
		return m.refresh(ctx)
	}

	// Общий вызов не должен отменяться вместе с контекстом первого из ожидающих.
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan("refresh", func() (any, error) {
		return nil, m.refresh(shared)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w: %w", op, ErrRefreshFailed, ctx.Err())
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	const op = "session.refresh"

	ctx, lg := log.With(ctx, slog.String("op", op))

	m.mu.RLock()
	r := m.refresher
	m.mu.RUnlock()

	if r == nil {
		m.metrics.Refresh(metrics.RefreshFailed)
		lg.Error("refresh_not_configured")
		return fmt.Errorf("%s: %w: refresher not configured", op, ErrRefreshFailed)
	}

	presented := m.store.Refresh()
	if presented == "" {
		m.metrics.Refresh(metrics.RefreshNoToken)
		return fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	pair, err := r.Refresh(ctx)
	if err != nil {
		m.metrics.Refresh(metrics.RefreshFailed)
		lg.Warn("refresh_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w: %w", op, ErrRefreshFailed, err)
	}

	if pair.Access == "" || pair.Refresh == "" {
		m.metrics.Refresh(metrics.RefreshFailed)
		lg.Warn("refresh_malformed_pair",
			slog.String("access", redact.Token(pair.Access)),
			slog.String("refresh", redact.Token(pair.Refresh)),
		)
		return fmt.Errorf("%s: %w: %w", op, ErrRefreshFailed, ErrMalformedPair)
	}

	if !m.store.ReplaceTokensIf(presented, pair.Access, pair.Refresh) {
		if m.store.Refresh() == "" {
			m.metrics.Refresh(metrics.RefreshFailed)
			lg.Info("refresh_discarded_after_logout")
			return fmt.Errorf("%s: %w", op, ErrSessionEnded)
		}
		lg.Debug("refresh_superseded")
		m.metrics.Refresh(metrics.RefreshOK)
		return nil
	}

	m.metrics.Refresh(metrics.RefreshOK)
	lg.Debug("refresh_ok", slog.String("access", redact.Token(pair.Access)))

	return nil
}

// Logout очищает токены и ожидающий e-mail одной записью.
// Идемпотентен, никогда не завершается ошибкой.
func (m *Manager) Logout() {
	wasActive := m.IsLoggedIn() || m.store.Refresh() != "" || m.store.PendingEmail() != ""

	m.store.Clear()

	if wasActive {
		m.metrics.Logout()
		m.log.Info("session_logout")
	}
}

// SetPendingEmail: прямой проброс в хранилище.
func (m *Manager) SetPendingEmail(email string) {
	m.store.SetPendingEmail(email)
}

func (m *Manager) PendingEmail() string {
	return m.store.PendingEmail()
}
