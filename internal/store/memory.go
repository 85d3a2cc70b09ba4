package store

import (
	"context"
	"sync"
	"time"

	"physio-backend/internal/models"
)

// memoryDB keeps every collection in insertion order. Reads hand out copies
// so callers never alias the stored slices.
type memoryDB struct {
	mu           sync.RWMutex
	users        []models.User
	patients     []models.Patient
	appointments []models.Appointment
	transactions []models.Transaction
}

// NewMemory returns an empty process-local store.
func NewMemory() *Store {
	db := &memoryDB{}
	return &Store{
		Users:        &memoryUsers{db: db},
		Patients:     &memoryPatients{db: db},
		Appointments: &memoryAppointments{db: db},
		Transactions: &memoryTransactions{db: db},
	}
}

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) List(ctx context.Context) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.User, len(r.db.users))
	copy(out, r.db.users)
	return out, nil
}

func (r *memoryUsers) Get(ctx context.Context, id string) (models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *memoryUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *memoryUsers) Create(ctx context.Context, user models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.ID == user.ID || u.Username == user.Username {
			return ErrDuplicate
		}
	}
	r.db.users = append(r.db.users, user)
	return nil
}

func (r *memoryUsers) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) (models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.users {
		if r.db.users[i].ID == id {
			r.db.users[i].Role = role
			r.db.users[i].UpdatedAt = at
			return r.db.users[i], nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *memoryUsers) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.users {
		if r.db.users[i].ID == id {
			r.db.users[i].PasswordHash = hash
			r.db.users[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryUsers) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, u := range r.db.users {
		if u.ID == id {
			r.db.users = append(r.db.users[:i], r.db.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type memoryPatients struct{ db *memoryDB }

func (r *memoryPatients) List(ctx context.Context) ([]models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Patient, len(r.db.patients))
	copy(out, r.db.patients)
	return out, nil
}

func (r *memoryPatients) Get(ctx context.Context, id string) (models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Patient{}, ErrNotFound
}

func (r *memoryPatients) Create(ctx context.Context, patient models.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.patients {
		if p.ID == patient.ID {
			return ErrDuplicate
		}
	}
	r.db.patients = append(r.db.patients, patient)
	return nil
}

type memoryAppointments struct{ db *memoryDB }

func (r *memoryAppointments) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Appointment, 0, len(r.db.appointments))
	for _, a := range r.db.appointments {
		if filter.matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryAppointments) Get(ctx context.Context, id string) (models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, a := range r.db.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Appointment{}, ErrNotFound
}

func (r *memoryAppointments) Create(ctx context.Context, appointment models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.appointments {
		if a.ID == appointment.ID {
			return ErrDuplicate
		}
	}
	r.db.appointments = append(r.db.appointments, appointment)
	return nil
}

func (r *memoryAppointments) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.appointments {
		if r.db.appointments[i].ID == id {
			r.db.appointments[i].Status = status
			return r.db.appointments[i], nil
		}
	}
	return models.Appointment{}, ErrNotFound
}

type memoryTransactions struct{ db *memoryDB }

func (r *memoryTransactions) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Transaction, 0, len(r.db.transactions))
	for _, tx := range r.db.transactions {
		if filter.matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memoryTransactions) Create(ctx context.Context, tx models.Transaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.transactions {
		if existing.ID == tx.ID {
			return ErrDuplicate
		}
	}
	r.db.transactions = append(r.db.transactions, tx)
	return nil
}
