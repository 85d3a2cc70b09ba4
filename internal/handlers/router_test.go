package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/cache"
	"physio-backend/internal/calendar"
	"physio-backend/internal/config"
	"physio-backend/internal/dashboard"
	"physio-backend/internal/events"
	"physio-backend/internal/finance"
	"physio-backend/internal/middleware"
	"physio-backend/internal/patients"
	"physio-backend/internal/remote"
	"physio-backend/internal/session"
	"physio-backend/internal/store"
	"physio-backend/internal/transport"
	"physio-backend/internal/users"
	"physio-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	loc := time.UTC
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.NewFixture(time.Now(), loc)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		FrontendOrigin:     "http://localhost:5173",
		Timezone:           loc,
		StoreDriver:        config.DriverMemory,
		RateLimitLogin:     100,
		RateLimitWindowSec: 60,
	}
	tokens := &auth.Manager{Secret: []byte("test-secret"), TTL: time.Hour, Issuer: "physio-test"}
	val := validation.New()
	c := cache.NewMemory()

	dash := dashboard.New(s, c, time.Minute, loc, log)
	bus := events.NewBus(dash)
	fin := finance.New(s, c, time.Minute, bus, loc, log)
	bus.Subscribe(fin)
	cal := calendar.New(s, bus, loc, log)

	server := &Server{
		Cfg:     cfg,
		Val:     val,
		Log:     log,
		Session: session.New(s.Users, tokens, 0),
		Remote:  remote.New("", ""),
	}
	return NewRouter(Routes{
		Server:    server,
		Tokens:    tokens,
		Calendar:  calendar.NewHandler(cal, nil, val, log),
		Dashboard: dashboard.NewHandler(dash, log),
		Finance:   finance.NewHandler(fin, val, log),
		Patients:  patients.NewHandler(patients.New(s, bus, log), val, log),
		Users:     users.NewHandler(users.New(s.Users), val, log),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, username string) *http.Cookie {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/session/login", LoginRequest{Username: username, Password: "123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("no session cookie for %s", username)
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/session/login", LoginRequest{Username: "admin", Password: "123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[LoginResponse](t, rec)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, "/", resp.Redirect)
	assert.NotEmpty(t, resp.Token)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	me := do(t, h, http.MethodGet, "/api/session/me", nil, cookie)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"username":"admin"`)
	assert.NotContains(t, me.Body.String(), "password")
	assert.Contains(t, me.Body.String(), `"permissions":["*:*"]`)
}

func TestLoginBadCredentials(t *testing.T) {
	h := newTestRouter(t)

	for _, req := range []LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "nobody", Password: "123"},
	} {
		rec := do(t, h, http.MethodPost, "/api/session/login", req, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, session.BadCredentialsMessage, decode[transport.ErrorResponse](t, rec).Error)
		assert.Empty(t, rec.Result().Cookies())
	}

	rec := do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerTokenIsAccepted(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/api/session/login", LoginRequest{Username: "julie", Password: "123"}, nil)
	token := decode[LoginResponse](t, rec).Token

	req := httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"role":"secretaire"`)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestRouter(t)
	cookie := login(t, h, "admin")

	rec := do(t, h, http.MethodPost, "/api/session/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, middleware.SessionCookie, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestAnonymousRequests(t *testing.T) {
	h := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/session/me", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/calendar/week", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/dashboard", nil, nil).Code)

	rec := do(t, h, http.MethodGet, "/api/navigation/resolve?path=/finance", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/login"`)

	tampered := &http.Cookie{Name: middleware.SessionCookie, Value: "not-a-token"}
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/session/me", nil, tampered).Code)
}

func TestTherapistCannotMutateCalendar(t *testing.T) {
	h := newTestRouter(t)
	cookie := login(t, h, "sophie")

	create := map[string]interface{}{
		"patient_id":   "p1",
		"therapist_id": "2",
		"type_soin":    "consultation",
		"date":         time.Now().UTC().Format("2006-01-02"),
		"time":         "11:00",
	}
	cases := []struct {
		path string
		body interface{}
	}{
		{"/api/calendar/appointments", create},
		{"/api/calendar/appointments/a3/confirm", nil},
		{"/api/calendar/appointments/a3/settle", map[string]interface{}{}},
		{"/api/calendar/appointments/a3/cancel", nil},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, tc.path, tc.body, cookie)
		require.Equal(t, http.StatusForbidden, rec.Code, tc.path)
		assert.Equal(t, "/calendar", decode[transport.ErrorResponse](t, rec).Details["redirect"])
	}

	week := do(t, h, http.MethodGet, "/api/calendar/week", nil, cookie)
	require.Equal(t, http.StatusOK, week.Code)
	assert.Contains(t, week.Body.String(), `"can_edit":false`)
}

func TestSecretaryCreatesAndSettles(t *testing.T) {
	h := newTestRouter(t)
	cookie := login(t, h, "julie")

	rec := do(t, h, http.MethodPost, "/api/calendar/appointments", map[string]interface{}{
		"patient_id":   "p2",
		"therapist_id": "3",
		"type_soin":    "ostéopathie",
		"date":         "2026-03-10",
		"time":         "16:00",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "En attente", created["status"])
	assert.EqualValues(t, 60, created["price"])

	id := created["id"].(string)
	settled := do(t, h, http.MethodPost, "/api/calendar/appointments/"+id+"/settle", map[string]string{"method": "Chèque"}, cookie)
	require.Equal(t, http.StatusOK, settled.Code, settled.Body.String())
	assert.Contains(t, settled.Body.String(), `"status":"Effectué"`)
	assert.Contains(t, settled.Body.String(), `"category":"Séance ostéopathie - Marie Curie"`)

	again := do(t, h, http.MethodPost, "/api/calendar/appointments/"+id+"/settle", nil, cookie)
	assert.Equal(t, http.StatusConflict, again.Code)

	missing := do(t, h, http.MethodPost, "/api/calendar/appointments/nope/cancel", nil, cookie)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCalendarCreateValidation(t *testing.T) {
	h := newTestRouter(t)
	cookie := login(t, h, "admin")

	rec := do(t, h, http.MethodPost, "/api/calendar/appointments", map[string]interface{}{
		"patient_id":   "p1",
		"therapist_id": "2",
		"type_soin":    "massage",
		"date":         "10/03/2026",
		"time":         "16:00",
	}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decode[transport.ErrorResponse](t, rec).Details
	assert.Contains(t, details, "type_soin")
	assert.Contains(t, details, "date")
}

func TestRoleGatedScreens(t *testing.T) {
	h := newTestRouter(t)
	secretary := login(t, h, "julie")
	therapist := login(t, h, "sophie")
	admin := login(t, h, "admin")

	rec := do(t, h, http.MethodGet, "/api/dashboard", nil, secretary)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "/calendar", decode[transport.ErrorResponse](t, rec).Details["redirect"])

	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/finance", nil, therapist).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/admin/users", nil, secretary).Code)

	fin := do(t, h, http.MethodGet, "/api/finance?period=year", nil, secretary)
	require.Equal(t, http.StatusOK, fin.Code)
	assert.NotContains(t, fin.Body.String(), `"gains"`)
	assert.NotContains(t, fin.Body.String(), `"net"`)
	assert.Contains(t, fin.Body.String(), `"expenses_total"`)

	full := do(t, h, http.MethodGet, "/api/finance?period=year", nil, admin)
	require.Equal(t, http.StatusOK, full.Code)
	assert.Contains(t, full.Body.String(), `"net"`)

	dash := do(t, h, http.MethodGet, "/api/dashboard?period=day", nil, admin)
	require.Equal(t, http.StatusOK, dash.Code)
	assert.Contains(t, dash.Body.String(), `"patients_count":3`)

	bad := do(t, h, http.MethodGet, "/api/dashboard?period=decade", nil, admin)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestFinanceRecord(t *testing.T) {
	h := newTestRouter(t)
	secretary := login(t, h, "julie")
	admin := login(t, h, "admin")

	rec := do(t, h, http.MethodPost, "/api/finance/transactions", map[string]interface{}{
		"type": "depense", "amount": 80, "category": "Fournitures",
	}, secretary)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"method":"Espèces"`)

	gain := do(t, h, http.MethodPost, "/api/finance/transactions", map[string]interface{}{
		"type": "gain", "amount": 40, "category": "Bilan",
	}, secretary)
	assert.Equal(t, http.StatusForbidden, gain.Code)

	zero := do(t, h, http.MethodPost, "/api/finance/transactions", map[string]interface{}{
		"type": "depense", "amount": 0, "category": "Rien",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, zero.Code)

	after := do(t, h, http.MethodGet, "/api/finance?period=day", nil, admin)
	require.Equal(t, http.StatusOK, after.Code)
	assert.Contains(t, after.Body.String(), "Fournitures")
}

func TestNavigation(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/navigation", nil, login(t, h, "julie"))
	require.Equal(t, http.StatusOK, rec.Code)
	menu := decode[MenuResponse](t, rec)
	var paths []string
	for _, item := range menu.Items {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"/calendar", "/patients", "/finance"}, paths)
	assert.Equal(t, "/calendar", menu.Default)

	admin := login(t, h, "admin")
	resolve := do(t, h, http.MethodGet, "/api/navigation/resolve?path=/login", nil, admin)
	assert.Contains(t, resolve.Body.String(), `"redirect":"/"`)
}

func TestPatientsEndpoints(t *testing.T) {
	h := newTestRouter(t)
	admin := login(t, h, "admin")

	rec := do(t, h, http.MethodGet, "/api/patients?limit=2", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}](t, rec)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/patients?limit=-1", nil, admin).Code)

	created := do(t, h, http.MethodPost, "/api/patients", map[string]interface{}{"name": "Luc Besson", "age": "61"}, login(t, h, "marc"))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Contains(t, created.Body.String(), `"age":61`)

	// Marc only follows Pierre Martin.
	other := do(t, h, http.MethodGet, "/api/patients/p1", nil, login(t, h, "marc"))
	assert.Equal(t, http.StatusNotFound, other.Code)
	own := do(t, h, http.MethodGet, "/api/patients/p3", nil, login(t, h, "marc"))
	assert.Equal(t, http.StatusOK, own.Code)
}

func TestAdminUsersEndpoints(t *testing.T) {
	h := newTestRouter(t)
	admin := login(t, h, "admin")

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodDelete, "/api/admin/users/1", nil, admin).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/admin/users/3", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/admin/users/3", nil, admin).Code)

	dup := do(t, h, http.MethodPost, "/api/admin/users", userBody("julie", "secretaire"), admin)
	assert.Equal(t, http.StatusConflict, dup.Code)

	created := do(t, h, http.MethodPost, "/api/admin/users", userBody("paul", "therapeute"), admin)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := decode[map[string]interface{}](t, created)["id"].(string)

	role := do(t, h, http.MethodPatch, "/api/admin/users/"+id+"/role", map[string]string{"role": "secretaire"}, admin)
	require.Equal(t, http.StatusOK, role.Code)
	assert.Contains(t, role.Body.String(), `"role":"secretaire"`)

	badRole := do(t, h, http.MethodPatch, "/api/admin/users/"+id+"/role", map[string]string{"role": "root"}, admin)
	assert.Equal(t, http.StatusBadRequest, badRole.Code)

	pw := do(t, h, http.MethodPatch, "/api/admin/users/"+id+"/password", map[string]string{"password": "nouveau"}, admin)
	require.Equal(t, http.StatusOK, pw.Code)
	relogin := do(t, h, http.MethodPost, "/api/session/login", LoginRequest{Username: "paul", Password: "nouveau"}, nil)
	assert.Equal(t, http.StatusOK, relogin.Code)
}

func userBody(username, role string) map[string]string {
	return map[string]string{
		"username":  username,
		"password":  "secret",
		"full_name": username,
		"role":      role,
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Store)
	assert.Equal(t, "disabled", resp.Checks["remote"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
