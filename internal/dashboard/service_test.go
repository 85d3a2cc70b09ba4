package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"physio-backend/internal/cache"
	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/patients"
	"physio-backend/internal/period"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris = mustLocation("Europe/Paris")
	now   = time.Date(2024, 5, 15, 11, 0, 0, 0, paris)
	admin = models.Profile{ID: "1", Role: models.RoleAdmin}
)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.NewFixture(now, paris)
	require.NoError(t, err)
	return New(s, cache.NewMemory(), time.Minute, paris, slog.New(slog.NewTextHandler(io.Discard, nil))), s
}

func TestOverviewMonth(t *testing.T) {
	svc, _ := newService(t)

	o, err := svc.Overview(context.Background(), admin, period.NewWindow(period.Month, now, paris))
	require.NoError(t, err)
	assert.Equal(t, 3, o.KPIs.AppointmentsCount)
	assert.Equal(t, 1, o.KPIs.PendingCount)
	assert.Equal(t, 3, o.KPIs.PatientsCount)
	require.NotNil(t, o.KPIs.NetProfit)
	assert.Equal(t, -1090.0, *o.KPIs.NetProfit)

	assert.Equal(t, []Point{
		{Key: 14, Label: "14", Gain: 50, Depense: 1200},
		{Key: 15, Label: "15", Gain: 60},
	}, o.Series)
}

func TestOverviewDayAndYear(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	day, err := svc.Overview(ctx, admin, period.NewWindow(period.Day, now, paris))
	require.NoError(t, err)
	assert.Equal(t, []Point{{Key: 11, Label: "11h", Gain: 60}}, day.Series)
	assert.Equal(t, 60.0, *day.KPIs.NetProfit)

	year, err := svc.Overview(ctx, admin, period.NewWindow(period.Year, now, paris))
	require.NoError(t, err)
	assert.Equal(t, []Point{{Key: 4, Label: "mai", Gain: 110, Depense: 1200}}, year.Series)

	week, err := svc.Overview(ctx, admin, period.NewWindow(period.Week, now, paris))
	require.NoError(t, err)
	assert.Equal(t, []Point{
		{Key: 1, Label: "mar.", Gain: 50, Depense: 1200},
		{Key: 2, Label: "mer.", Gain: 60},
	}, week.Series)

	empty, err := svc.Overview(ctx, admin, period.NewWindow(period.Year, now.AddDate(-1, 0, 0), paris))
	require.NoError(t, err)
	assert.Zero(t, empty.KPIs.AppointmentsCount)
	assert.Empty(t, empty.Series)
	assert.Equal(t, 3, empty.KPIs.PatientsCount)
}

func TestOverviewIsAdminOnly(t *testing.T) {
	svc, _ := newService(t)
	for _, role := range []models.Role{models.RoleSecretary, models.RoleTherapist} {
		_, err := svc.Overview(context.Background(), models.Profile{ID: "x", Role: role}, period.NewWindow(period.Month, now, paris))
		assert.ErrorIs(t, err, policy.ErrForbidden, role)
	}
}

func TestOverviewCacheInvalidatedByEvents(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	w := period.NewWindow(period.Month, now, paris)

	_, err := svc.Overview(ctx, admin, w)
	require.NoError(t, err)

	_, err = s.Appointments.UpdateStatus(ctx, "a3", models.StatusCancelled)
	require.NoError(t, err)

	stale, err := svc.Overview(ctx, admin, w)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.KPIs.PendingCount)

	require.NoError(t, svc.Publish(ctx, events.Event{Type: events.AppointmentCancelled, ID: "a3"}))
	fresh, err := svc.Overview(ctx, admin, w)
	require.NoError(t, err)
	assert.Zero(t, fresh.KPIs.PendingCount)
}

func TestOverviewCountsNewPatients(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	w := period.NewWindow(period.Month, now, paris)

	before, err := svc.Overview(ctx, admin, w)
	require.NoError(t, err)
	require.Equal(t, 3, before.KPIs.PatientsCount)

	records := patients.New(s, events.NewBus(svc), nil)
	_, err = records.Create(ctx, admin, patients.CreateInput{Name: "Nouveau Patient"})
	require.NoError(t, err)

	after, err := svc.Overview(ctx, admin, w)
	require.NoError(t, err)
	assert.Equal(t, 4, after.KPIs.PatientsCount)
}
