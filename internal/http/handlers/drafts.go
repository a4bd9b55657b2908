package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/draftmail/internal/errors"
	"github.com/pribylovaa/draftmail/internal/service"
)

func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var in service.GenerateInput
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	draft, err := h.svc.Generate(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// History отдаёт историю писем; ?q= фильтрует по тексту запроса и письма.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.History(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}
