package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"physio-backend/internal/db"
	"physio-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = mustLocation("Europe/Paris")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// backends returns one freshly seeded store per driver that runs without
// external services.
func backends(t *testing.T, now time.Time) map[string]*Store {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenSQL("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlStore, err := NewSQL(ctx, gdb)
	require.NoError(t, err)

	out := map[string]*Store{
		"memory": NewMemory(),
		"sqlite": sqlStore,
	}
	for name, s := range out {
		require.NoError(t, Load(ctx, s, DemoSeed(now, paris), plainHash), name)
	}
	return out
}

func plainHash(p string) (string, error) { return "hash:" + p, nil }

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func TestUsers(t *testing.T) {
	now := time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	for name, s := range backends(t, now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			users, err := s.Users.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids(users, func(u models.User) string { return u.ID }))

			u, err := s.Users.FindByUsername(ctx, "sophie")
			require.NoError(t, err)
			assert.Equal(t, "2", u.ID)
			assert.Equal(t, "hash:123", u.PasswordHash)
			assert.Equal(t, models.RoleTherapist, u.Role)

			_, err = s.Users.FindByUsername(ctx, "nobody")
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.Users.Create(ctx, models.User{ID: "5", Username: "sophie", Role: models.RoleSecretary})
			assert.ErrorIs(t, err, ErrDuplicate)

			later := now.Add(time.Hour)
			updated, err := s.Users.UpdateRole(ctx, "2", models.RoleSecretary, later)
			require.NoError(t, err)
			assert.Equal(t, models.RoleSecretary, updated.Role)
			assert.True(t, updated.UpdatedAt.Equal(later))

			require.NoError(t, s.Users.UpdatePassword(ctx, "2", "hash:456", later))
			u, err = s.Users.Get(ctx, "2")
			require.NoError(t, err)
			assert.Equal(t, "hash:456", u.PasswordHash)

			_, err = s.Users.UpdateRole(ctx, "missing", models.RoleAdmin, later)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Users.UpdatePassword(ctx, "missing", "x", later), ErrNotFound)

			require.NoError(t, s.Users.Delete(ctx, "3"))
			_, err = s.Users.Get(ctx, "3")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Users.Delete(ctx, "3"), ErrNotFound)
		})
	}
}

func TestPatients(t *testing.T) {
	now := time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	for name, s := range backends(t, now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := s.Patients.Get(ctx, "p2")
			require.NoError(t, err)
			assert.Equal(t, "Marie Curie", p.Name)
			assert.Equal(t, 32, p.Age)

			require.NoError(t, s.Patients.Create(ctx, models.Patient{ID: "p4", Name: "Alice", CreatedAt: now}))
			assert.ErrorIs(t, s.Patients.Create(ctx, models.Patient{ID: "p4", Name: "Bob"}), ErrDuplicate)

			all, err := s.Patients.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"p1", "p2", "p3", "p4"}, ids(all, func(p models.Patient) string { return p.ID }))

			_, err = s.Patients.Get(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAppointmentFilters(t *testing.T) {
	now := time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	day := time.Date(2024, 5, 15, 0, 0, 0, 0, paris)
	for name, s := range backends(t, now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			all, err := s.Appointments.List(ctx, AppointmentFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 3)

			mine, err := s.Appointments.List(ctx, AppointmentFilter{TherapistID: "2"})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a1", "a2"}, ids(mine, func(a models.Appointment) string { return a.ID }))

			morning, err := s.Appointments.List(ctx, AppointmentFilter{From: day, To: day.Add(12 * time.Hour)})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a1", "a2"}, ids(morning, func(a models.Appointment) string { return a.ID }))

			// The upper bound is exclusive: a3 starts exactly at 14:00.
			before, err := s.Appointments.List(ctx, AppointmentFilter{From: day, To: day.Add(14 * time.Hour)})
			require.NoError(t, err)
			assert.Len(t, before, 2)
			from, err := s.Appointments.List(ctx, AppointmentFilter{From: day.Add(14 * time.Hour)})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a3"}, ids(from, func(a models.Appointment) string { return a.ID }))

			a, err := s.Appointments.UpdateStatus(ctx, "a3", models.StatusCancelled)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, a.Status)
			assert.Equal(t, "Pierre Martin", a.PatientName)
			assert.True(t, a.StartTime.Equal(day.Add(14*time.Hour)))

			_, err = s.Appointments.UpdateStatus(ctx, "zz", models.StatusDone)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Appointments.Get(ctx, "zz")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestTransactionFilters(t *testing.T) {
	now := time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	today := time.Date(2024, 5, 15, 0, 0, 0, 0, paris)
	for name, s := range backends(t, now) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			gains, err := s.Transactions.List(ctx, TransactionFilter{Type: models.TransactionGain})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"t1", "t3"}, ids(gains, func(tx models.Transaction) string { return tx.ID }))

			todays, err := s.Transactions.List(ctx, TransactionFilter{From: today, To: today.AddDate(0, 0, 1)})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"t3"}, ids(todays, func(tx models.Transaction) string { return tx.ID }))

			require.NoError(t, s.Transactions.Create(ctx, models.Transaction{
				ID: "t4", Type: models.TransactionGain, Amount: 35, Category: "Séance", Method: models.PaymentCash, Date: now, AppointmentID: "a1",
			}))
			assert.ErrorIs(t, s.Transactions.Create(ctx, models.Transaction{ID: "t4", Date: now}), ErrDuplicate)

			todays, err = s.Transactions.List(ctx, TransactionFilter{Type: models.TransactionGain, From: today, To: today.AddDate(0, 0, 1)})
			require.NoError(t, err)
			require.Len(t, todays, 2)
			for _, tx := range todays {
				if tx.ID == "t4" {
					assert.Equal(t, "a1", tx.AppointmentID)
					assert.InDelta(t, 35.0, tx.Amount, 0.001)
				}
			}
		})
	}
}

func TestMemoryReadsAreCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Patients.Create(ctx, models.Patient{ID: "p1", Name: "Jean"}))

	list, err := s.Patients.List(ctx)
	require.NoError(t, err)
	list[0].Name = "changed"

	p, err := s.Patients.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jean", p.Name)
}

func TestLoadIsRepeatable(t *testing.T) {
	now := time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	s := NewMemory()
	ctx := context.Background()
	seed := DemoSeed(now, paris)

	require.NoError(t, Load(ctx, s, seed, plainHash))
	require.NoError(t, Load(ctx, s, seed, plainHash))

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
	txs, err := s.Transactions.List(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestNewFixtureHashesPasswords(t *testing.T) {
	s, err := NewFixture(time.Now(), paris)
	require.NoError(t, err)

	u, err := s.Users.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.NotEqual(t, "123", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}
