package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"physio-backend/internal/httpx"
	"physio-backend/internal/models"
	"physio-backend/internal/transport"
	"physio-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{service: service, val: val, log: log}
}

type CreateRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=3,max=72"`
	FullName string `json:"full_name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,role"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=3,max=72"`
}

func (h *Handler) writeError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		log.Warn(op + ": username taken")
		transport.WriteError(w, http.StatusConflict, "username already taken", nil)
	case errors.Is(err, ErrProtectedUser):
		log.Warn(op + ": protected user")
		transport.WriteError(w, http.StatusConflict, "admin accounts are protected", nil)
	default:
		httpx.WriteServiceError(w, log, op, err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, httpx.Actor(r), r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, log, "admin users list", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin users create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin users create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.service.Create(ctx, httpx.Actor(r), CreateInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.writeError(w, log, "admin users create", err)
		return
	}

	log.Info("admin users create: ok", slog.String("user_id", p.ID), slog.String("role", string(p.Role)))
	transport.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req RoleRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin users role: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin users role: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.service.UpdateRole(ctx, httpx.Actor(r), id, models.Role(req.Role))
	if err != nil {
		h.writeError(w, log, "admin users role", err)
		return
	}
	log.Info("admin users role: ok", slog.String("user_id", id), slog.String("role", string(p.Role)))
	transport.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req PasswordRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin users password: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin users password: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.ResetPassword(ctx, httpx.Actor(r), id, req.Password); err != nil {
		h.writeError(w, log, "admin users password", err)
		return
	}
	log.Info("admin users password: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, httpx.Actor(r), id); err != nil {
		h.writeError(w, log, "admin users delete", err)
		return
	}
	log.Info("admin users delete: ok", slog.String("user_id", id))
	transport.WriteNoContent(w)
}
