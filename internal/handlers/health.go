package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"physio-backend/internal/transport"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Store  string            `json:"store"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Store: s.Cfg.StoreDriver, Checks: map[string]string{}}
	for _, c := range s.Checks {
		if err := c.Ping(ctx); err != nil {
			log.Warn("health: check failed", slog.String("check", c.Name), slog.String("error", err.Error()))
			resp.Checks[c.Name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[c.Name] = "up"
	}

	// The remote backend is informative only and never degrades the status.
	switch {
	case !s.Remote.Configured():
		resp.Checks["remote"] = "disabled"
	case s.Remote.Ping(ctx) != nil:
		resp.Checks["remote"] = "down"
	default:
		resp.Checks["remote"] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	transport.WriteJSON(w, status, resp)
}
