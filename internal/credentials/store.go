// credentials - хранилище учётных данных клиентской сессии: access- и
// refresh-токен плюс e-mail, ожидающий подтверждения.
//
// Контракт Store синхронный и тотальный: ни одна операция не возвращает ошибку.
// Состояние держится в памяти как неизменяемый Snapshot и заменяется целиком
// при каждой записи, поэтому читатель никогда не увидит пару токенов
// «наполовину» (старый access + новый refresh).
//
// Долговременность обеспечивает опциональный Backend (файл, Redis): снимок
// загружается при Open и сохраняется write-through после каждой записи.
// Ошибки бэкенда логируются и не доходят до вызывающего.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound: бэкенд не содержит сохранённого снимка (первый запуск).
var ErrNotFound = errors.New("credentials snapshot not found")

// Snapshot: всё сохраняемое состояние клиента.
type Snapshot struct {
	Access       string `json:"access_token,omitempty"`
	Refresh      string `json:"refresh_token,omitempty"`
	PendingEmail string `json:"pending_email,omitempty"`
}

// Backend: долговременное хранение снимка.
type Backend interface {
	// Load возвращает сохранённый снимок или ErrNotFound.
	Load(ctx context.Context) (Snapshot, error)
	// Save целиком заменяет сохранённый снимок.
	Save(ctx context.Context, s Snapshot) error
}

// Store: потокобезопасное хранилище учётных данных.
type Store struct {
	mu      sync.RWMutex
	saveMu  sync.Mutex
	snap    Snapshot
	backend Backend
	log     *slog.Logger
	timeout time.Duration
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задаёт логгер для ошибок бэкенда.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSaveTimeout ограничивает время одной записи в бэкенд (по умолчанию 2s).
// Чтения на это время не блокируются; ждут только следующие записи.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMemory создаёт хранилище без долговременного бэкенда.
func NewMemory(opts ...Option) *Store {
	s := &Store{log: slog.Default(), timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open создаёт хранилище поверх backend и загружает сохранённый снимок.
// Отсутствие снимка - не ошибка: хранилище стартует пустым.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	const op = "credentials.Open"

	s := NewMemory(opts...)
	if backend == nil {
		return s, nil
	}
	s.backend = backend

	snap, err := backend.Load(ctx)
	switch {
	case err == nil:
		s.snap = snap
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// SetTokens безусловно заменяет пару токенов.
func (s *Store) SetTokens(access, refresh string) {
	s.update(func(sn Snapshot) (Snapshot, bool) {
		sn.Access, sn.Refresh = access, refresh
		return sn, true
	})
}

// ReplaceTokensIf заменяет пару, только если текущий refresh-токен равен
// prevRefresh. Проверка и запись атомарны относительно остальных записей.
// false означает, что сессия за это время сменилась или завершилась.
func (s *Store) ReplaceTokensIf(prevRefresh, access, refresh string) bool {
	return s.update(func(sn Snapshot) (Snapshot, bool) {
		if prevRefresh == "" || sn.Refresh != prevRefresh {
			return sn, false
		}
		sn.Access, sn.Refresh = access, refresh
		return sn, true
	})
}

// Access возвращает текущий access-токен ("" если его нет).
func (s *Store) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Access
}

// Refresh возвращает текущий refresh-токен ("" если его нет).
func (s *Store) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Refresh
}

// Tokens читает обе половины пары под одной блокировкой.
func (s *Store) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Access, s.snap.Refresh
}

// ClearTokens удаляет пару токенов, e-mail не трогает.
func (s *Store) ClearTokens() {
	s.update(func(sn Snapshot) (Snapshot, bool) {
		sn.Access, sn.Refresh = "", ""
		return sn, true
	})
}

func (s *Store) SetPendingEmail(email string) {
	s.update(func(sn Snapshot) (Snapshot, bool) {
		sn.PendingEmail = email
		return sn, true
	})
}

// PendingEmail возвращает e-mail, ожидающий подтверждения, или "".
func (s *Store) PendingEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.PendingEmail
}

func (s *Store) ClearPendingEmail() {
	s.update(func(sn Snapshot) (Snapshot, bool) {
		sn.PendingEmail = ""
		return sn, true
	})
}

// Clear удаляет токены и e-mail одной записью.
func (s *Store) Clear() {
	s.update(func(Snapshot) (Snapshot, bool) { return Snapshot{}, true })
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap
}

// update применяет fn к текущему снимку и сохраняет результат.
// fn возвращает false, если запись не нужна; update возвращает, применена ли она.
//
// Снимок в памяти меняется под mu, запись в бэкенд идёт уже без него:
// читатели (Access, IsLoggedIn у guard'а) не ждут медленный бэкенд.
// saveMu держится на всё время update, поэтому снимки попадают в бэкенд
// в том же порядке, в каком менялись в памяти.
func (s *Store) update(fn func(Snapshot) (Snapshot, bool)) bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next, ok := fn(s.snap)
	if !ok || next == s.snap {
		s.mu.Unlock()
		return ok
	}
	s.snap = next
	s.mu.Unlock()

	if s.backend == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.backend.Save(ctx, next); err != nil {
		s.log.Warn("credentials_save_failed",
			slog.String("op", "credentials.update"),
			slog.String("err", err.Error()),
		)
	}

	return true
}
