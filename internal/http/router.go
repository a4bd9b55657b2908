package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/draftmail/internal/guards"
	"github.com/pribylovaa/draftmail/internal/http/handlers"
	"github.com/pribylovaa/draftmail/internal/http/middleware"
	"github.com/pribylovaa/draftmail/internal/service"
)

// Options: параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой: роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi. protected закрывает экраны,
// доступные только подтверждённому пользователю.
func NewRouter(svc *service.Service, protected guards.Guard, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.RequestID(),          // X-Request-Id до логирования
		middleware.Logging(opts.Logger), // request-scoped логгер в контексте
		middleware.Recover(),            // паника -> 500 с логом уже с request_id
		middleware.Navigation(),         // сюда сессионный слой пишет редирект на вход
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, protected)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, protected)
	return root
}

// registerRoutes: единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, protected guards.Guard) {
	// auth
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Get("/verify-email", h.VerifyEmail)
	r.Get("/verification-status", h.VerificationStatus)
	r.Post("/resend-verification", h.ResendVerification)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)

	// только для подтверждённых пользователей
	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(protected))

		r.Get("/profile", h.Profile)
		r.Patch("/profile", h.UpdateProfile)
		r.Post("/profile/password", h.ChangePassword)
		r.Post("/generate", h.Generate)
		r.Get("/history", h.History)
	})
}
