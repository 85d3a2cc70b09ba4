// Package handlers serves the session, navigation and health endpoints and
// assembles the clinic router from the per-package handlers.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"physio-backend/internal/config"
	"physio-backend/internal/httpx"
	"physio-backend/internal/remote"
	"physio-backend/internal/session"
	"physio-backend/internal/validation"
)

// Check reports the health of one backing service.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Server struct {
	Cfg     *config.Config
	Val     *validation.Validator
	Log     *slog.Logger
	Session *session.Service
	Remote  *remote.Client
	Checks  []Check
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	return httpx.RequestLogger(s.Log, r)
}
