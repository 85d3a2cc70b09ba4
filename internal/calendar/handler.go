package calendar

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"physio-backend/internal/events"
	"physio-backend/internal/httpx"
	"physio-backend/internal/models"
	"physio-backend/internal/schedule"
	"physio-backend/internal/transport"
	"physio-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	hub     *events.Hub
	val     *validation.Validator
	log     *slog.Logger
}

// NewHandler wires the HTTP surface. hub may be nil, in which case the
// live feed answers 503.
func NewHandler(service *Service, hub *events.Hub, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{service: service, hub: hub, val: val, log: log}
}

type CreateRequest struct {
	PatientID   string   `json:"patient_id" validate:"required"`
	TherapistID string   `json:"therapist_id" validate:"required"`
	Type        string   `json:"type_soin" validate:"required,treatment"`
	Date        string   `json:"date" validate:"required,date"`
	Time        string   `json:"time" validate:"required,clock"`
	Duration    int      `json:"duration" validate:"omitempty,gt=0,lte=480"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Notes       string   `json:"notes" validate:"max=2000"`
}

type SettleRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
	Method string   `json:"method" validate:"omitempty,method"`
}

func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	q := r.URL.Query()

	anchor := h.service.now().In(h.service.loc)
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		parsed, err := schedule.ParseDate(raw, h.service.loc)
		if err != nil {
			log.Warn("calendar week: invalid date", slog.String("date", raw))
			transport.WriteError(w, http.StatusBadRequest, "invalid date", nil)
			return
		}
		anchor = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.service.Week(ctx, httpx.Actor(r), anchor, strings.TrimSpace(q.Get("therapist")))
	if err != nil {
		httpx.WriteServiceError(w, log, "calendar week", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("calendar create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("calendar create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Create(ctx, httpx.Actor(r), CreateInput{
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		Type:        models.TreatmentType(req.Type),
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
		Price:       req.Price,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		httpx.WriteServiceError(w, log, "calendar create", err)
		return
	}

	log.Info("calendar create: booked",
		slog.String("appointment_id", appointment.ID),
		slog.String("therapist_id", appointment.TherapistID),
		slog.Time("start", appointment.StartTime),
	)
	transport.WriteJSON(w, http.StatusCreated, appointment)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.Confirm(ctx, httpx.Actor(r), id)
	if err != nil {
		httpx.WriteServiceError(w, log, "calendar confirm", err)
		return
	}
	log.Info("calendar confirm: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req SettleRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("calendar settle: invalid json")
			transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("calendar settle: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, tx, err := h.service.Settle(ctx, httpx.Actor(r), id, SettleInput{
		Amount: req.Amount,
		Method: models.PaymentMethod(req.Method),
	})
	if err != nil {
		httpx.WriteServiceError(w, log, "calendar settle", err)
		return
	}

	log.Info("calendar settle: ok",
		slog.String("appointment_id", id),
		slog.String("transaction_id", tx.ID),
		slog.Float64("amount", tx.Amount),
	)
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"appointment": appointment,
		"transaction": tx,
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.Cancel(ctx, httpx.Actor(r), id)
	if err != nil {
		httpx.WriteServiceError(w, log, "calendar cancel", err)
		return
	}
	log.Info("calendar cancel: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

// Live upgrades to the websocket feed of calendar and ledger events.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)
	if h.hub == nil {
		transport.WriteError(w, http.StatusServiceUnavailable, "live feed disabled", nil)
		return
	}
	if err := h.hub.Serve(w, r, httpx.Actor(r)); err != nil {
		log.Warn("calendar live: upgrade failed", slog.String("error", err.Error()))
	}
}
