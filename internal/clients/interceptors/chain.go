// interceptors предоставляет middleware для исходящих HTTP-вызовов клиента
// (обёртки над http.RoundTripper): метаданные запроса, логирование и
// сессионный слой с обновлением токенов.
package interceptors

import "net/http"

// RoundTripperFunc: адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware: обёртка над транспортом.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain применяет мидлвары к транспорту в порядке их перечисления:
// первый в списке видит запрос первым. base == nil: http.DefaultTransport.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}
