package handlers

import (
	"net/http"

	"physio-backend/internal/httpx"
	"physio-backend/internal/middleware"
	"physio-backend/internal/policy"
	"physio-backend/internal/transport"
)

type MenuResponse struct {
	Items   []policy.Route `json:"items"`
	Default string         `json:"default"`
}

func (s *Server) Menu(w http.ResponseWriter, r *http.Request) {
	role := httpx.Actor(r).Role
	transport.WriteJSON(w, http.StatusOK, MenuResponse{
		Items:   policy.Menu(role),
		Default: policy.DefaultRoute(role),
	})
}

// Resolve answers the shell guard for ?path=. Anonymous callers are
// allowed here and get the login redirect.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	transport.WriteJSON(w, http.StatusOK, policy.Resolve(profile, r.URL.Query().Get("path")))
}
