// handlers: JSON-эндпойнты веб-клиента поверх сценариев service.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pribylovaa/draftmail/internal/clients"
	"github.com/pribylovaa/draftmail/internal/service"
)

// Handlers агрегирует зависимости (сценарии веб-клиента).
type Handlers struct {
	svc *service.Service
}

func New(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// NextResponse: ответ сценария, после которого клиент переходит на экран.
type NextResponse struct {
	Next service.Route `json:"next"`
}

// writeJSON: единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w", clients.ErrInvalidArgument)
	}
	return nil
}
