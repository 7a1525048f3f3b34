package http

import (
	"errors"
	"net/http"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
)

func writeUnauthenticated(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "A valid session is required")
}

func writeForbidden(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusForbidden, "forbidden", "Admin access required")
}

func writeBadRequest(w http.ResponseWriter, description string) {
	httpx.WriteError(w, http.StatusBadRequest, "bad_request", description)
}

func writeNotFound(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Something went wrong")
}

// writeServiceError maps the common service sentinels; anything
// unrecognized becomes a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeUnauthenticated(w)
	case errors.Is(err, service.ErrForbidden):
		writeForbidden(w)
	case errors.Is(err, store.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidProject),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrUnknownCategory):
		writeBadRequest(w, err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrCategoryExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", err.Error())
	default:
		writeServerError(w)
	}
}
