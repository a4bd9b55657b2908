// errors стандартизирует ответы об ошибках HTTP-слоя веб-клиента.
// На вход он принимает ошибку сценария (валидация ввода, ошибка бэкенда
// clients.APIError, транспорт, контекст), а на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message.
//
// Сообщения бэкенда (поле detail) показываются пользователю как есть:
// это пользовательские тексты ("Email already registered" и т.п.).
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/draftmail/internal/clients"
	"github.com/pribylovaa/draftmail/internal/http/navigation"
	"github.com/pribylovaa/draftmail/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// CodeSessionExpired: сессия потеряна во время запроса (обновление не удалось).
const CodeSessionExpired = "session_expired"

// APIError: единый формат для фронта.
// Code: короткий стабильный код для машиночитаемой обработки на FE.
// Message: безопасное человекочитаемое описание.
// Redirect: экран, на который нужно перейти (редирект guard'а, истёкшая сессия).
// RequestID: прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Redirect  string `json:"redirect,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func newResponse(code, msg string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// ToHTTP конвертирует ошибку сценария в HTTP-статус и ответ для фронта.
//
// Порядок проверок:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - ошибки валидации service: 400, message из сентинела;
//   - отмена/дедлайн контекста: 499/504;
//   - ошибки бэкенда: по классу (errors.Is на сентинелы clients),
//     message из detail, если он есть;
//   - прочее: 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, newResponse("internal", "internal error")
	}

	for _, v := range service.ValidationErrors {
		if stderrors.Is(err, v) {
			return http.StatusBadRequest, newResponse("invalid_argument", v.Error())
		}
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, newResponse("canceled", "canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, newResponse("deadline_exceeded", "deadline exceeded")
	}

	detail := clients.Detail(err)
	msg := func(def string) string {
		if detail != "" {
			return detail
		}
		return def
	}

	var apiErr *clients.APIError
	isBackend := stderrors.As(err, &apiErr)

	switch {
	case stderrors.Is(err, clients.ErrUnauthenticated):
		return http.StatusUnauthorized, newResponse("unauthenticated", msg("unauthenticated"))
	case stderrors.Is(err, clients.ErrForbidden):
		return http.StatusForbidden, newResponse("permission_denied", msg("permission denied"))
	case stderrors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound, newResponse("not_found", msg("not found"))
	case stderrors.Is(err, clients.ErrInvalidArgument):
		return http.StatusBadRequest, newResponse("invalid_argument", msg("invalid argument"))
	case stderrors.Is(err, clients.ErrConflict):
		return http.StatusConflict, newResponse("already_exists", msg("already exists"))
	case stderrors.Is(err, clients.ErrUnavailable) && isBackend:
		return http.StatusBadGateway, newResponse("bad_gateway", msg("backend error"))
	case stderrors.Is(err, clients.ErrUnavailable):
		return http.StatusServiceUnavailable, newResponse("unavailable", "service unavailable")
	default:
		return http.StatusInternalServerError, newResponse("internal", "internal error")
	}
}

// WriteError: хелпер для HTTP-хендлеров.
// Если во время запроса сессионный слой запросил переход на вход,
// ответ - 401/session_expired с Location; иначе: маппинг ToHTTP.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if target := navigation.From(r.Context()).Target(); target != "" {
		resp := newResponse(CodeSessionExpired, "session expired, please log in again")
		resp.Error.Redirect = target
		w.Header().Set("Location", target)
		write(w, r, http.StatusUnauthorized, resp)
		return
	}

	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// WriteRedirect - отказ guard'а: 303 See Other на target с телом-объяснением.
func WriteRedirect(w http.ResponseWriter, r *http.Request, target, code string) {
	resp := newResponse(code, "redirect to "+target)
	resp.Error.Redirect = target
	w.Header().Set("Location", target)
	write(w, r, http.StatusSeeOther, resp)
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
