package patients

import (
	"context"
	"testing"
	"time"

	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = models.Profile{ID: "1", Role: models.RoleAdmin}
	secretary = models.Profile{ID: "4", Role: models.RoleSecretary}
	sophie    = models.Profile{ID: "2", Role: models.RoleTherapist}
	marc      = models.Profile{ID: "3", Role: models.RoleTherapist}
)

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewFixture(time.Now(), time.UTC)
	require.NoError(t, err)
	return New(s, nil, nil)
}

func ids(ps []models.Patient) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestListByRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	all, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(all))

	sec, err := svc.List(ctx, secretary, "")
	require.NoError(t, err)
	assert.Equal(t, ids(all), ids(sec))

	mine, err := svc.List(ctx, sophie, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids(mine))

	theirs, err := svc.List(ctx, marc, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids(theirs))

	// A therapist's list is always contained in the admin's.
	assert.Subset(t, ids(all), ids(mine))
	assert.Subset(t, ids(all), ids(theirs))
}

func TestListSearch(t *testing.T) {
	svc := newService(t)
	got, err := svc.List(context.Background(), admin, "  CURIE ")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(got))

	got, err = svc.List(context.Background(), marc, "marie")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetRespectsVisibility(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Get(ctx, sophie, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jean Dupont", p.Name)

	_, err = svc.Get(ctx, sophie, "p3")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Get(ctx, admin, "p9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, marc, CreateInput{Name: " Alice Martin ", Age: "41", Phone: "0600000000"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Alice Martin", p.Name)
	assert.Equal(t, 41, p.Age)

	p, err = svc.Create(ctx, secretary, CreateInput{Name: "Bob"})
	require.NoError(t, err)
	assert.Zero(t, p.Age)

	_, err = svc.Create(ctx, admin, CreateInput{Name: "  "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.Create(ctx, admin, CreateInput{Name: "Carl", Age: "old"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	all, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(ctx context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestCreatePublishesPatientCreated(t *testing.T) {
	s, err := store.NewFixture(time.Now(), time.UTC)
	require.NoError(t, err)
	rec := &recorder{}
	svc := New(s, rec, nil)

	p, err := svc.Create(context.Background(), secretary, CreateInput{Name: "Eva"})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	assert.Equal(t, events.PatientCreated, rec.events[0].Type)
	assert.Equal(t, policy.ResourcePatient, rec.events[0].Resource)
	assert.Equal(t, p.ID, rec.events[0].ID)
	assert.Nil(t, rec.events[0].Payload)

	_, err = svc.Create(context.Background(), secretary, CreateInput{Name: " "})
	require.Error(t, err)
	assert.Len(t, rec.events, 1)
}
