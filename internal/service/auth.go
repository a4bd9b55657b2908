package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/pkg/log"
	"github.com/pribylovaa/draftmail/internal/pkg/redact"
)

// Login выполняет вход и выбирает следующий экран.
//
// Контракт:
//  1. пара токенов и e-mail сохраняются сразу после успешного входа;
//  2. затем запрашивается статус подтверждения: подтверждён - RouteGenerate,
//     не подтверждён или статус недоступен: RouteVerifyEmail.
func (s *Service) Login(ctx context.Context, email, password string) (Route, error) {
	const op = "service.auth.Login"

	email, err := validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	res, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.sess.SetTokens(res.AccessToken, res.RefreshToken)
	s.sess.SetPendingEmail(email)

	lg := log.From(ctx).With(slog.String("op", op), slog.String("email", redact.Email(email)))

	st, err := s.api.VerificationStatus(ctx)
	if err != nil {
		lg.Warn("verification_status_failed", slog.String("err", err.Error()))
		return RouteVerifyEmail, nil
	}

	lg.Info("login_ok", slog.Bool("verified", st.Verified))

	if st.Verified {
		return RouteGenerate, nil
	}
	return RouteVerifyEmail, nil
}

// Register создаёт аккаунт; новый пользователь всегда попадает на экран
// подтверждения e-mail.
func (s *Service) Register(ctx context.Context, name, email, password string) (Route, error) {
	const op = "service.auth.Register"

	name, err := validateName(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	email, err = validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := validatePassword(password); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.api.Register(ctx, models.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.sess.SetTokens(res.AccessToken, res.RefreshToken)
	s.sess.SetPendingEmail(email)

	log.From(ctx).Info("register_ok",
		slog.String("op", op),
		slog.String("email", redact.Email(email)),
	)

	return RouteVerifyEmail, nil
}

// VerificationView: состояние экрана подтверждения e-mail.
type VerificationView struct {
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
	// Next: куда перейти, если адрес подтверждён.
	Next Route `json:"next,omitempty"`
}

func newVerificationView(email string, st models.VerificationStatus) VerificationView {
	v := VerificationView{Email: email, Verified: st.Verified, Message: st.Message}
	if st.Email != "" {
		v.Email = st.Email
	}
	if st.Verified {
		v.Next = RouteGenerate
	}
	return v
}

// VerifyFromLink подтверждает адрес по ссылке из письма и запоминает его
// как ожидающий e-mail. Токены сессии не требуются.
func (s *Service) VerifyFromLink(ctx context.Context, token, email string) (VerificationView, error) {
	const op = "service.auth.VerifyFromLink"

	token = strings.TrimSpace(token)
	email = strings.TrimSpace(email)
	if token == "" || email == "" {
		return VerificationView{}, fmt.Errorf("%s: %w", op, ErrInvalidVerificationLink)
	}

	st, err := s.api.VerifyEmail(ctx, token, email)
	if err != nil {
		return VerificationView{}, fmt.Errorf("%s: %w", op, err)
	}

	s.sess.SetPendingEmail(email)

	// Успешный ответ означает подтверждённый адрес, даже если тело пустое.
	st.Verified = true
	return newVerificationView(email, st), nil
}

// CheckVerification запрашивает статус подтверждения текущего пользователя.
func (s *Service) CheckVerification(ctx context.Context) (VerificationView, error) {
	const op = "service.auth.CheckVerification"

	st, err := s.api.VerificationStatus(ctx)
	if err != nil {
		return VerificationView{}, fmt.Errorf("%s: %w", op, err)
	}

	return newVerificationView(s.sess.PendingEmail(), st), nil
}

// ResendVerification повторно отправляет письмо подтверждения.
func (s *Service) ResendVerification(ctx context.Context) (VerificationView, error) {
	const op = "service.auth.ResendVerification"

	st, err := s.api.ResendVerification(ctx)
	if err != nil {
		return VerificationView{}, fmt.Errorf("%s: %w", op, err)
	}

	return newVerificationView(s.sess.PendingEmail(), st), nil
}

// Logout завершает сессию локально; бэкенд не уведомляется.
func (s *Service) Logout(ctx context.Context) Route {
	s.sess.Logout()
	log.From(ctx).Info("logout", slog.String("op", "service.auth.Logout"))

	return RouteHome
}

// SessionInfo: состояние сессии для клиента. Токены наружу не отдаются.
type SessionInfo struct {
	Authenticated   bool       `json:"authenticated"`
	PendingEmail    string     `json:"pending_email,omitempty"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
}

func (s *Service) Session(context.Context) SessionInfo {
	info := SessionInfo{
		Authenticated: s.sess.State().Authenticated,
		PendingEmail:  s.sess.PendingEmail(),
	}

	if exp, ok := s.sess.AccessExpiresAt(); ok {
		info.AccessExpiresAt = &exp
	}

	return info
}
