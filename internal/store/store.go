// Package store holds the repositories behind every clinic service. The
// memory backend serves tests and demos; mongo and sql back real deployments.
package store

import (
	"context"
	"errors"
	"time"

	"physio-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) (models.User, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type PatientRepository interface {
	List(ctx context.Context) ([]models.Patient, error)
	Get(ctx context.Context, id string) (models.Patient, error)
	Create(ctx context.Context, patient models.Patient) error
}

// AppointmentFilter narrows a listing. Zero values mean no constraint; the
// time window is half-open on StartTime.
type AppointmentFilter struct {
	TherapistID string
	From        time.Time
	To          time.Time
}

type AppointmentRepository interface {
	List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
	Get(ctx context.Context, id string) (models.Appointment, error)
	Create(ctx context.Context, appointment models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error)
}

// TransactionFilter narrows a ledger listing; the window is half-open on Date.
type TransactionFilter struct {
	Type models.TransactionType
	From time.Time
	To   time.Time
}

type TransactionRepository interface {
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	Create(ctx context.Context, tx models.Transaction) error
}

type Store struct {
	Users        UserRepository
	Patients     PatientRepository
	Appointments AppointmentRepository
	Transactions TransactionRepository
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (f AppointmentFilter) matches(a models.Appointment) bool {
	if f.TherapistID != "" && a.TherapistID != f.TherapistID {
		return false
	}
	return inWindow(a.StartTime, f.From, f.To)
}

func (f TransactionFilter) matches(tx models.Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	return inWindow(tx.Date, f.From, f.To)
}
