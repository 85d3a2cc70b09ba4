package finance

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"physio-backend/internal/httpx"
	"physio-backend/internal/models"
	"physio-backend/internal/transport"
	"physio-backend/internal/validation"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{service: service, val: val, log: log}
}

type RecordRequest struct {
	Type     string  `json:"type" validate:"required,txtype"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Category string  `json:"category" validate:"required,max=200"`
	Method   string  `json:"method" validate:"omitempty,method"`
	Date     string  `json:"date" validate:"omitempty,date"`
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	window, err := httpx.ParseWindow(r, h.service.loc, h.service.now())
	if err != nil {
		log.Warn("finance summary: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.service.Summary(ctx, httpx.Actor(r), window)
	if err != nil {
		httpx.WriteServiceError(w, log, "finance summary", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	log := httpx.RequestLogger(h.log, r)

	var req RecordRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("finance record: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("finance record: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := h.service.Record(ctx, httpx.Actor(r), RecordInput{
		Type:     models.TransactionType(req.Type),
		Amount:   req.Amount,
		Category: strings.TrimSpace(req.Category),
		Method:   models.PaymentMethod(req.Method),
		Date:     req.Date,
	})
	if err != nil {
		httpx.WriteServiceError(w, log, "finance record", err)
		return
	}

	log.Info("finance record: ok", slog.String("transaction_id", tx.ID), slog.String("type", string(tx.Type)))
	transport.WriteJSON(w, http.StatusCreated, tx)
}
