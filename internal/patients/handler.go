package patients

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"physio-backend/internal/httpx"
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
	Name      string      `json:"name" validate:"required,max=200"`
	Age       interface{} `json:"age"`
	Address   string      `json:"address" validate:"max=500"`
	Phone     string      `json:"phone" validate:"omitempty,phone"`
	Insurance string      `json:"insurance" validate:"max=200"`
	Pathology string      `json:"pathology" validate:"max=1000"`
	Email     string      `json:"email" validate:"omitempty,email"`
}

// ageString accepts the age as a JSON number or string, as forms send it.
func ageString(v interface{}) string {
	switch a := v.(type) {
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	case string:
		return a
	default:
		return ""
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 200)
	if err != nil {
		log.Warn("patients list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, httpx.Actor(r), r.URL.Query().Get("search"))
	if err != nil {
		httpx.WriteServiceError(w, log, "patients list", err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  httpx.Page(items, limit, offset),
		"limit":  limit,
		"offset": offset,
		"total":  len(items),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.service.Get(ctx, httpx.Actor(r), id)
	if err != nil {
		httpx.WriteServiceError(w, log, "patients get", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("patients create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("patients create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.service.Create(ctx, httpx.Actor(r), CreateInput{
		Name:      req.Name,
		Age:       ageString(req.Age),
		Address:   req.Address,
		Phone:     req.Phone,
		Insurance: req.Insurance,
		Pathology: req.Pathology,
		Email:     req.Email,
	})
	if err != nil {
		httpx.WriteServiceError(w, log, "patients create", err)
		return
	}

	log.Info("patients create: ok", slog.String("patient_id", p.ID))
	transport.WriteJSON(w, http.StatusCreated, p)
}
