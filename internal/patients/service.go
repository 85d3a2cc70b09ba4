// Package patients serves patient records. Therapists only see the
// patients they have appointments with.
package patients

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"

	"github.com/google/uuid"
)

type Service struct {
	store  *store.Store
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

func New(s *store.Store, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: s, events: pub, log: log, now: time.Now}
}

// List returns the patients visible to actor whose name contains search,
// case-insensitively.
func (s *Service) List(ctx context.Context, actor models.Profile, search string) ([]models.Patient, error) {
	if err := policy.Authorize(actor.Role, policy.ActionList, policy.ResourcePatient); err != nil {
		return nil, err
	}
	all, err := s.store.Patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	visible, err := s.visibleSet(ctx, actor)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Patient, 0, len(all))
	for _, p := range all {
		if visible != nil {
			if _, ok := visible[p.ID]; !ok {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor models.Profile, id string) (models.Patient, error) {
	if err := policy.Authorize(actor.Role, policy.ActionView, policy.ResourcePatient); err != nil {
		return models.Patient{}, err
	}
	p, err := s.store.Patients.Get(ctx, id)
	if err != nil {
		return models.Patient{}, err
	}
	visible, err := s.visibleSet(ctx, actor)
	if err != nil {
		return models.Patient{}, err
	}
	if visible != nil {
		if _, ok := visible[id]; !ok {
			return models.Patient{}, store.ErrNotFound
		}
	}
	return p, nil
}

// visibleSet returns the patient ids a therapist may see, or nil when the
// role sees every patient.
func (s *Service) visibleSet(ctx context.Context, actor models.Profile) (map[string]struct{}, error) {
	if actor.Role != models.RoleTherapist {
		return nil, nil
	}
	appointments, err := s.store.Appointments.List(ctx, store.AppointmentFilter{TherapistID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	set := make(map[string]struct{}, len(appointments))
	for _, a := range appointments {
		set[a.PatientID] = struct{}{}
	}
	return set, nil
}

type CreateInput struct {
	Name      string
	Age       string
	Address   string
	Phone     string
	Insurance string
	Pathology string
	Email     string
}

func (s *Service) Create(ctx context.Context, actor models.Profile, in CreateInput) (models.Patient, error) {
	if err := policy.Authorize(actor.Role, policy.ActionCreate, policy.ResourcePatient); err != nil {
		return models.Patient{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Patient{}, models.InvalidField("name", "required")
	}
	age := 0
	if raw := strings.TrimSpace(in.Age); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return models.Patient{}, models.InvalidField("age", "expected a non negative number")
		}
		age = parsed
	}

	p := models.Patient{
		ID:        uuid.NewString(),
		Name:      name,
		Age:       age,
		Address:   strings.TrimSpace(in.Address),
		Phone:     strings.TrimSpace(in.Phone),
		Insurance: strings.TrimSpace(in.Insurance),
		Pathology: strings.TrimSpace(in.Pathology),
		Email:     strings.TrimSpace(in.Email),
		CreatedAt: s.now(),
	}
	if err := s.store.Patients.Create(ctx, p); err != nil {
		return models.Patient{}, fmt.Errorf("create patient: %w", err)
	}

	// Only the id goes out: the live feed reaches therapists who may not
	// follow this patient.
	err := s.events.Publish(ctx, events.Event{
		Type:     events.PatientCreated,
		Resource: policy.ResourcePatient,
		ID:       p.ID,
		At:       p.CreatedAt,
	})
	if err != nil && s.log != nil {
		s.log.Warn("patients events: publish failed", slog.String("error", err.Error()))
	}
	return p, nil
}
