package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/draftmail/internal/pkg/log"
)

// Logging: одна запись на каждый сетевой вызов.
// Поведение:
//   - берёт request_id из заголовка X-Request-Id (его ставит WithMetadata);
//   - прокладывает обогащённый логгер в контекст запроса (pkg/log);
//   - пишет финальную запись msg="http_client": status, dur
//     (или err на уровне Warn при транспортной ошибке).
//
// Безопасность: не логирует тело, query и заголовки с учётными данными.
func Logging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = "-"
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			req = req.WithContext(log.Into(req.Context(), l))

			resp, err := next.RoundTrip(req)
			if err != nil {
				l.Warn("http_client",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			l.Info("http_client",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)
			return resp, nil
		})
	}
}
