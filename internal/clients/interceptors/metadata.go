package interceptors

import (
	"net/http"

	"github.com/google/uuid"
)

type CtxKey string

const CtxRequestID CtxKey = "request_id"

const HeaderRequestID = "X-Request-Id"

// WithMetadata добавляет в исходящий вызов заголовки:
//   - X-Request-Id: из контекста (CtxRequestID), иначе уже выставленный
//     вызывающим, иначе новый UUID;
//   - User-Agent (если передан параметром).
//
// Исходный запрос не изменяется.
func WithMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			rid, _ := req.Context().Value(CtxRequestID).(string)
			if rid == "" {
				rid = req.Header.Get(HeaderRequestID)
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			out := req.Clone(req.Context())
			out.Header.Set(HeaderRequestID, rid)
			if userAgent != "" {
				out.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(out)
		})
	}
}
