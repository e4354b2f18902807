package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/errkind"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const maxBodySize = 1 << 20

// statusClientClosedRequest reports a request abandoned by the client.
const statusClientClosedRequest = 499

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err to a response by its kind. Unclassified errors are logged
// and hidden behind a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		zctx.From(r.Context()).Debug("Request canceled", zap.Error(err))
		httpmiddleware.WriteError(w, statusClientClosedRequest, "canceled", "request canceled")
	case errors.Is(err, errBadRequest):
		httpmiddleware.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, errkind.ErrValidation):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, "validation", err.Error())
	case errors.Is(err, errkind.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, errkind.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		zctx.From(r.Context()).Warn("Dependency unavailable", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return errors.Wrapf(errBadRequest, "invalid JSON body: %v", err)
	}
	return nil
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(errBadRequest, "invalid id %q", raw)
	}
	return id, nil
}
