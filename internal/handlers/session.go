package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"physio-backend/internal/httpx"
	"physio-backend/internal/middleware"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/session"
	"physio-backend/internal/transport"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	User     models.Profile `json:"user"`
	Token    string         `json:"token"`
	Redirect string         `json:"redirect"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("session login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("session login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	profile, token, err := s.Session.Login(ctx, req.Username, req.Password)
	if errors.Is(err, session.ErrBadCredentials) {
		log.Warn("session login: invalid credentials", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, session.BadCredentialsMessage, nil)
		return
	}
	if err != nil {
		log.Error("session login: error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "login error", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Session.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("session login: ok", slog.String("user_id", profile.ID), slog.String("role", string(profile.Role)))
	transport.WriteJSON(w, http.StatusOK, LoginResponse{
		User:     profile,
		Token:    token,
		Redirect: policy.DefaultRoute(profile.Role),
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	if p := middleware.ProfileFromContext(r.Context()); p != nil {
		s.logWithRequest(r).Info("session logout: ok", slog.String("user_id", p.ID))
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"redirect": policy.PathLogin})
}

// MeResponse is the session profile with its grants, so clients can hide
// controls the role may not use.
type MeResponse struct {
	models.Profile
	Permissions []policy.Permission `json:"permissions"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	actor := httpx.Actor(r)
	transport.WriteJSON(w, http.StatusOK, MeResponse{
		Profile:     actor,
		Permissions: policy.Permissions(actor.Role),
	})
}
