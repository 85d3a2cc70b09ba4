// Package calendar runs the weekly planning: the grid view, booking, and
// the status transitions of an appointment including settlement.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/schedule"
	"physio-backend/internal/store"

	"github.com/google/uuid"
)

// UnknownName stands in for a patient or therapist that cannot be found.
const UnknownName = "Inconnu"

// FilterAll shows every therapist's appointments on the grid.
const FilterAll = "all"

type Service struct {
	store  *store.Store
	events events.Publisher
	loc    *time.Location
	log    *slog.Logger
	now    func() time.Time

	// mu serializes status transitions so a settlement cannot race a
	// second one into two ledger entries.
	mu sync.Mutex
}

func New(s *store.Store, pub events.Publisher, loc *time.Location, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: s, events: pub, loc: loc, log: log, now: time.Now}
}

type WeekView struct {
	WeekStart  string           `json:"week_start"`
	Days       []string         `json:"days"`
	Hours      []int            `json:"hours"`
	Cells      []schedule.Cell  `json:"cells"`
	Therapists []models.Profile `json:"therapists"`
	Filter     string           `json:"filter"`
	CanEdit    bool             `json:"can_edit"`
}

// Week returns the Monday to Saturday grid containing anchor. therapist is
// FilterAll, empty, or a therapist id.
func (s *Service) Week(ctx context.Context, actor models.Profile, anchor time.Time, therapist string) (WeekView, error) {
	if err := policy.Authorize(actor.Role, policy.ActionList, policy.ResourceAppointment); err != nil {
		return WeekView{}, err
	}
	if therapist == "" {
		therapist = FilterAll
	}

	start := schedule.WeekStart(anchor, s.loc)
	filter := store.AppointmentFilter{From: start, To: start.AddDate(0, 0, 7)}
	if therapist != FilterAll {
		filter.TherapistID = therapist
	}
	list, err := s.store.Appointments.List(ctx, filter)
	if err != nil {
		return WeekView{}, fmt.Errorf("list appointments: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })

	therapists, err := s.Therapists(ctx)
	if err != nil {
		return WeekView{}, err
	}

	days := schedule.WeekDays(anchor, s.loc)
	view := WeekView{
		WeekStart:  start.Format("2006-01-02"),
		Days:       make([]string, 0, len(days)),
		Hours:      schedule.HourSlots(),
		Cells:      schedule.Bucket(list, anchor, s.loc),
		Therapists: therapists,
		Filter:     therapist,
		CanEdit:    policy.Can(actor.Role, policy.ActionCreate, policy.ResourceAppointment),
	}
	for _, d := range days {
		view.Days = append(view.Days, d.Format("2006-01-02"))
	}
	return view, nil
}

// Therapists lists the profiles that can be booked.
func (s *Service) Therapists(ctx context.Context) ([]models.Profile, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.Profile, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleTherapist {
			out = append(out, u.Profile())
		}
	}
	return out, nil
}

type CreateInput struct {
	PatientID   string
	TherapistID string
	Type        models.TreatmentType
	Date        string
	Time        string
	Duration    int
	Price       *float64
	Notes       string
}

func (s *Service) Create(ctx context.Context, actor models.Profile, in CreateInput) (models.Appointment, error) {
	if err := policy.Authorize(actor.Role, policy.ActionCreate, policy.ResourceAppointment); err != nil {
		return models.Appointment{}, err
	}
	if in.PatientID == "" {
		return models.Appointment{}, models.InvalidField("patient_id", "required")
	}
	if in.TherapistID == "" {
		return models.Appointment{}, models.InvalidField("therapist_id", "required")
	}
	if !models.IsValidTreatment(string(in.Type)) {
		return models.Appointment{}, models.InvalidField("type_soin", "unknown treatment")
	}

	start, err := schedule.ParseDateTime(in.Date, in.Time, s.loc)
	if errors.Is(err, schedule.ErrInvalidDate) {
		return models.Appointment{}, models.InvalidField("date", err.Error())
	}
	if err != nil {
		return models.Appointment{}, models.InvalidField("time", err.Error())
	}
	duration := in.Duration
	if duration == 0 {
		duration = schedule.DefaultDurationMinutes
	}
	end, err := schedule.Span(start, duration)
	if err != nil {
		return models.Appointment{}, models.InvalidField("duration", err.Error())
	}

	price := schedule.PriceFor(in.Type)
	if in.Price != nil {
		if *in.Price <= 0 {
			return models.Appointment{}, models.InvalidField("price", "must not be negative")
		}
		price = *in.Price
	}

	patientName, err := s.patientName(ctx, in.PatientID)
	if err != nil {
		return models.Appointment{}, err
	}
	therapistName, err := s.therapistName(ctx, in.TherapistID)
	if err != nil {
		return models.Appointment{}, err
	}

	appointment := models.Appointment{
		ID:            uuid.NewString(),
		PatientID:     in.PatientID,
		PatientName:   patientName,
		TherapistID:   in.TherapistID,
		TherapistName: therapistName,
		Type:          in.Type,
		Status:        models.StatusPending,
		StartTime:     start,
		EndTime:       end,
		Price:         price,
		Notes:         in.Notes,
	}
	if err := s.store.Appointments.Create(ctx, appointment); err != nil {
		return models.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	s.publish(ctx, events.AppointmentCreated, policy.ResourceAppointment, appointment.ID, appointment)
	return appointment, nil
}

func (s *Service) patientName(ctx context.Context, id string) (string, error) {
	p, err := s.store.Patients.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return UnknownName, nil
	}
	if err != nil {
		return "", fmt.Errorf("get patient: %w", err)
	}
	return p.Name, nil
}

func (s *Service) therapistName(ctx context.Context, id string) (string, error) {
	u, err := s.store.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return UnknownName, nil
	}
	if err != nil {
		return "", fmt.Errorf("get therapist: %w", err)
	}
	return u.FullName, nil
}

// Confirm moves a pending appointment to Confirmé.
func (s *Service) Confirm(ctx context.Context, actor models.Profile, id string) (models.Appointment, error) {
	if err := policy.Authorize(actor.Role, policy.ActionUpdate, policy.ResourceAppointment); err != nil {
		return models.Appointment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Appointments.Get(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if current.Status != models.StatusPending {
		return models.Appointment{}, models.ErrInvalidTransition
	}
	updated, err := s.store.Appointments.UpdateStatus(ctx, id, models.StatusConfirmed)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("confirm appointment: %w", err)
	}
	s.publish(ctx, events.AppointmentConfirmed, policy.ResourceAppointment, id, updated)
	return updated, nil
}

type SettleInput struct {
	// Amount defaults to the appointment price.
	Amount *float64
	// Method defaults to card.
	Method models.PaymentMethod
}

// Settle records the payment of an appointment: exactly one gain entry is
// written and the appointment becomes Effectué. Terminal appointments are
// rejected with ErrInvalidTransition and nothing is written.
func (s *Service) Settle(ctx context.Context, actor models.Profile, id string, in SettleInput) (models.Appointment, models.Transaction, error) {
	if err := policy.Authorize(actor.Role, policy.ActionSettle, policy.ResourceAppointment); err != nil {
		return models.Appointment{}, models.Transaction{}, err
	}
	method := in.Method
	if method == "" {
		method = models.PaymentCard
	}
	if !models.IsValidPaymentMethod(string(method)) {
		return models.Appointment{}, models.Transaction{}, models.InvalidField("method", "unknown payment method")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Appointments.Get(ctx, id)
	if err != nil {
		return models.Appointment{}, models.Transaction{}, err
	}
	if current.Status.Terminal() {
		return models.Appointment{}, models.Transaction{}, models.ErrInvalidTransition
	}

	amount := current.Price
	if in.Amount != nil {
		amount = *in.Amount
	}
	if amount <= 0 {
		return models.Appointment{}, models.Transaction{}, models.InvalidField("amount", "must be positive")
	}

	tx := models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionGain,
		Category:      fmt.Sprintf("Séance %s - %s", current.Type, current.PatientName),
		Method:        method,
		Amount:        amount,
		Date:          s.now().In(s.loc),
		AppointmentID: current.ID,
	}
	// The status moves first so a failed step never leaves a gain behind a
	// settleable appointment; a failed ledger write restores the status.
	updated, err := s.store.Appointments.UpdateStatus(ctx, id, models.StatusDone)
	if err != nil {
		return models.Appointment{}, models.Transaction{}, fmt.Errorf("settle appointment: %w", err)
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		if _, rerr := s.store.Appointments.UpdateStatus(ctx, id, current.Status); rerr != nil && s.log != nil {
			s.log.Error("calendar settle: status rollback failed",
				slog.String("appointment_id", id),
				slog.String("error", rerr.Error()),
			)
		}
		return models.Appointment{}, models.Transaction{}, fmt.Errorf("record settlement: %w", err)
	}

	s.publish(ctx, events.AppointmentSettled, policy.ResourceAppointment, id, updated)
	s.publish(ctx, events.TransactionRecorded, policy.ResourceRevenue, tx.ID, tx)
	return updated, tx, nil
}

func (s *Service) Cancel(ctx context.Context, actor models.Profile, id string) (models.Appointment, error) {
	if err := policy.Authorize(actor.Role, policy.ActionCancel, policy.ResourceAppointment); err != nil {
		return models.Appointment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Appointments.Get(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if current.Status.Terminal() {
		return models.Appointment{}, models.ErrInvalidTransition
	}
	updated, err := s.store.Appointments.UpdateStatus(ctx, id, models.StatusCancelled)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("cancel appointment: %w", err)
	}
	s.publish(ctx, events.AppointmentCancelled, policy.ResourceAppointment, id, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, kind string, resource policy.Resource, id string, payload interface{}) {
	err := s.events.Publish(ctx, events.Event{
		Type:     kind,
		Resource: resource,
		ID:       id,
		At:       s.now(),
		Payload:  payload,
	})
	if err != nil && s.log != nil {
		s.log.Warn("calendar events: publish failed", slog.String("type", kind), slog.String("error", err.Error()))
	}
}
