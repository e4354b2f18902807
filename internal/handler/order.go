package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
)

// GetOrder returns a placed order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, errors.Wrap(err, "get order"))
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}
