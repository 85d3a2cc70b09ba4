package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type SeedUser struct {
	User     models.User
	Password string
}

// Seed is a data set loaded into a fresh store.
type Seed struct {
	Users        []SeedUser
	Patients     []models.Patient
	Appointments []models.Appointment
	Transactions []models.Transaction
}

// DemoSeed is the practice used for demos and tests: one admin, two
// therapists and a secretary (all with password "123"), three patients,
// three appointments today and three ledger entries.
func DemoSeed(now time.Time, loc *time.Location) Seed {
	now = now.In(loc)
	at := func(h, m int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, loc)
	}
	yesterday := now.AddDate(0, 0, -1)

	user := func(id, username, fullName string, role models.Role) SeedUser {
		return SeedUser{
			User: models.User{
				ID:        id,
				Username:  username,
				FullName:  fullName,
				Role:      role,
				CreatedAt: now,
				UpdatedAt: now,
			},
			Password: "123",
		}
	}

	return Seed{
		Users: []SeedUser{
			user("1", "admin", "Administrateur", models.RoleAdmin),
			user("2", "sophie", "Sophie Kiné", models.RoleTherapist),
			user("3", "marc", "Marc Ostéo", models.RoleTherapist),
			user("4", "julie", "Julie Accueil", models.RoleSecretary),
		},
		Patients: []models.Patient{
			{ID: "p1", Name: "Jean Dupont", Age: 45, Address: "10 Rue de la Paix, Paris", Phone: "0601020304", Insurance: "Alan", Pathology: "Tendinite épaule", Email: "jean@gmail.com", CreatedAt: now},
			{ID: "p2", Name: "Marie Curie", Age: 32, Address: "5 Avenue des Sciences, Lyon", Phone: "0699887766", Insurance: "MGEN", Pathology: "Lumbago", Email: "marie@science.com", CreatedAt: now},
			{ID: "p3", Name: "Pierre Martin", Age: 58, Address: "12 Bd Victor Hugo, Nice", Phone: "0611223344", Insurance: "Swiss Life", Pathology: "Rééducation genou", Email: "pierre@test.com", CreatedAt: now},
		},
		Appointments: []models.Appointment{
			{ID: "a1", PatientID: "p1", PatientName: "Jean Dupont", TherapistID: "2", TherapistName: "Sophie Kiné", StartTime: at(9, 0), EndTime: at(9, 30), Type: models.TreatmentPhysiotherapy, Status: models.StatusConfirmed, Price: 35},
			{ID: "a2", PatientID: "p2", PatientName: "Marie Curie", TherapistID: "2", TherapistName: "Sophie Kiné", StartTime: at(10, 0), EndTime: at(10, 45), Type: models.TreatmentTecar, Status: models.StatusDone, Price: 50},
			{ID: "a3", PatientID: "p3", PatientName: "Pierre Martin", TherapistID: "3", TherapistName: "Marc Ostéo", StartTime: at(14, 0), EndTime: at(15, 0), Type: models.TreatmentOsteopathy, Status: models.StatusPending, Price: 60},
		},
		Transactions: []models.Transaction{
			{ID: "t1", Date: yesterday, Amount: 50, Type: models.TransactionGain, Category: "Séance Tecar", Method: models.PaymentCard},
			{ID: "t2", Date: yesterday, Amount: 1200, Type: models.TransactionExpense, Category: "Loyer", Method: models.PaymentCheck},
			{ID: "t3", Date: now, Amount: 60, Type: models.TransactionGain, Category: "Séance Ostéo", Method: models.PaymentCash},
		},
	}
}

// Load writes seed into s. Records that already exist are skipped so the
// call can be repeated against a persistent backend.
func Load(ctx context.Context, s *Store, seed Seed, hash func(string) (string, error)) error {
	for _, su := range seed.Users {
		u := su.User
		h, err := hash(su.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		u.PasswordHash = h
		if err := skipDuplicate(s.Users.Create(ctx, u)); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, p := range seed.Patients {
		if err := skipDuplicate(s.Patients.Create(ctx, p)); err != nil {
			return fmt.Errorf("seed patient %s: %w", p.ID, err)
		}
	}
	for _, a := range seed.Appointments {
		if err := skipDuplicate(s.Appointments.Create(ctx, a)); err != nil {
			return fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
	}
	for _, tx := range seed.Transactions {
		if err := skipDuplicate(s.Transactions.Create(ctx, tx)); err != nil {
			return fmt.Errorf("seed transaction %s: %w", tx.ID, err)
		}
	}
	return nil
}

func skipDuplicate(err error) error {
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// NewFixture returns a memory store loaded with DemoSeed. Demo passwords
// are hashed at the minimum bcrypt cost.
func NewFixture(now time.Time, loc *time.Location) (*Store, error) {
	s := NewMemory()
	hash := func(password string) (string, error) {
		return auth.HashPasswordCost(password, bcrypt.MinCost)
	}
	if err := Load(context.Background(), s, DemoSeed(now, loc), hash); err != nil {
		return nil, err
	}
	return s, nil
}
