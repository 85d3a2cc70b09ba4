package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"
	"physio-backend/internal/transport"
)

// WriteServiceError answers with the status of a service error shared by
// every clinic package. op prefixes the log line, as in "calendar settle".
// Package specific sentinels are mapped by their handlers before this.
func WriteServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var inputErr *models.InputError
	switch {
	case errors.As(err, &inputErr):
		log.Warn(op+": validation error", slog.String("field", inputErr.Field))
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{inputErr.Field: inputErr.Reason})
	case errors.Is(err, models.ErrInvalidInput):
		log.Warn(op + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", nil)
	case errors.Is(err, store.ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, policy.ErrForbidden):
		log.Warn(op + ": forbidden")
		transport.WriteError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, models.ErrInvalidTransition):
		log.Warn(op + ": invalid transition")
		transport.WriteError(w, http.StatusConflict, "invalid status transition", nil)
	default:
		log.Error(op+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}
