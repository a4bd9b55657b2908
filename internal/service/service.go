// service содержит сценарии веб-клиента поверх сессионного слоя:
// вход и регистрацию с выбором следующего экрана, подтверждение e-mail,
// профиль, генерацию писем и историю.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; всё состояние сессии живёт
//     в session.Manager, сетевые вызовы идут через clients.Client.
//   - Ошибки бэкенда (clients.APIError) пробрасываются обёрнутыми;
//     HTTP-слой маппит их через internal/errors.
//   - Ошибки валидации ввода: сентинелы ниже (HTTP 400).
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/session"
)

var (
	// ErrInvalidEmail: e-mail пустой или некорректного формата.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidName: имя короче 2 или длиннее 50 символов.
	ErrInvalidName = errors.New("name must be 2 to 50 characters")

	// ErrInvalidPassword: пароль короче 8 или длиннее 64 символов.
	ErrInvalidPassword = errors.New("password must be 8 to 64 characters")

	// ErrEmptyPassword: пароль не указан.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrEmptyPrompt: не описано, о чём письмо.
	ErrEmptyPrompt = errors.New("please describe what you want to write")

	// ErrInvalidPrompt: собранный промпт вне 5..500 символов.
	ErrInvalidPrompt = errors.New("prompt must be 5 to 500 characters")

	// ErrInvalidTone: тон вне поддерживаемого набора.
	ErrInvalidTone = errors.New("unsupported tone")

	// ErrInvalidLength: длина вне поддерживаемого набора.
	ErrInvalidLength = errors.New("unsupported length")

	// ErrInvalidVerificationLink: в ссылке подтверждения нет token или email.
	ErrInvalidVerificationLink = errors.New("verification link is incomplete")
)

// ValidationErrors: все ошибки ввода пакета (HTTP 400).
var ValidationErrors = []error{
	ErrInvalidEmail,
	ErrInvalidName,
	ErrInvalidPassword,
	ErrEmptyPassword,
	ErrEmptyPrompt,
	ErrInvalidPrompt,
	ErrInvalidTone,
	ErrInvalidLength,
	ErrInvalidVerificationLink,
}

// Route: экран, на который клиент должен перейти после сценария.
type Route string

const (
	RouteHome        Route = "/home"
	RouteLogin       Route = "/login"
	RouteVerifyEmail Route = "/verify-email"
	RouteGenerate    Route = "/generate"
)

// API: вызовы бэкенда, нужные сценариям (реализует clients.Client).
type API interface {
	Register(ctx context.Context, in models.RegisterRequest) (models.AuthResponse, error)
	Login(ctx context.Context, in models.LoginRequest) (models.AuthResponse, error)
	VerifyEmail(ctx context.Context, token, email string) (models.VerificationStatus, error)
	VerificationStatus(ctx context.Context) (models.VerificationStatus, error)
	ResendVerification(ctx context.Context) (models.VerificationStatus, error)
	Profile(ctx context.Context) (models.UserProfile, error)
	UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) (models.MessageResponse, error)
	ChangePassword(ctx context.Context, in models.ChangePasswordRequest) (models.MessageResponse, error)
	GenerateEmail(ctx context.Context, in models.GenerateRequest) (models.EmailDraft, error)
	Emails(ctx context.Context) ([]models.EmailDraft, error)
}

// Session: операции session.Manager, используемые сценариями.
type Session interface {
	SetTokens(access, refresh string)
	SetPendingEmail(email string)
	PendingEmail() string
	Logout()
	State() session.State
	AccessExpiresAt() (time.Time, bool)
}

// Service описывает сценарии веб-клиента.
type Service struct {
	api  API
	sess Session
	log  *slog.Logger
}

// New создаёт новый экземпляр Service.
func New(api API, sess Session, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{api: api, sess: sess, log: log}
}
