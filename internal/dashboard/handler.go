package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"physio-backend/internal/httpx"
	"physio-backend/internal/transport"
)

type Handler struct {
	service *Service
	log     *slog.Logger
	now     func() time.Time
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log, now: time.Now}
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	window, err := httpx.ParseWindow(r, h.service.loc, h.now())
	if err != nil {
		log.Warn("dashboard overview: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	overview, err := h.service.Overview(ctx, httpx.Actor(r), window)
	if err != nil {
		httpx.WriteServiceError(w, log, "dashboard overview", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, overview)
}
