package handlers

import (
	"net/http"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/calendar"
	"physio-backend/internal/dashboard"
	"physio-backend/internal/finance"
	"physio-backend/internal/middleware"
	"physio-backend/internal/patients"
	"physio-backend/internal/policy"
	"physio-backend/internal/users"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type Routes struct {
	Server    *Server
	Tokens    *auth.Manager
	Calendar  *calendar.Handler
	Dashboard *dashboard.Handler
	Finance   *finance.Handler
	Patients  *patients.Handler
	Users     *users.Handler
}

func NewRouter(rt Routes) http.Handler {
	cfg := rt.Server.Cfg
	s := rt.Server

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(s.Log))
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLogin, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	can := middleware.RequirePermission

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Session(rt.Tokens))

		// The live feed holds its connection open, so it stays outside the
		// request timeout.
		api.With(can(policy.ActionList, policy.ResourceAppointment)).Get("/calendar/live", rt.Calendar.Live)

		api.Group(func(g chi.Router) {
			g.Use(chiMiddleware.Timeout(30 * time.Second))

			g.Get("/health", s.Health)
			g.With(loginLimiter.Middleware).Post("/session/login", s.Login)
			g.Post("/session/logout", s.Logout)
			g.Get("/navigation/resolve", s.Resolve)

			g.Group(func(authed chi.Router) {
				authed.Use(middleware.RequireAuth)
				authed.Get("/session/me", s.Me)
				authed.Get("/navigation", s.Menu)

				authed.With(can(policy.ActionView, policy.ResourceDashboard)).Get("/dashboard", rt.Dashboard.Overview)

				authed.Route("/calendar", func(c chi.Router) {
					c.With(can(policy.ActionList, policy.ResourceAppointment)).Get("/week", rt.Calendar.Week)
					c.With(can(policy.ActionCreate, policy.ResourceAppointment)).Post("/appointments", rt.Calendar.Create)
					c.With(can(policy.ActionUpdate, policy.ResourceAppointment)).Post("/appointments/{id}/confirm", rt.Calendar.Confirm)
					c.With(can(policy.ActionSettle, policy.ResourceAppointment)).Post("/appointments/{id}/settle", rt.Calendar.Settle)
					c.With(can(policy.ActionCancel, policy.ResourceAppointment)).Post("/appointments/{id}/cancel", rt.Calendar.Cancel)
				})

				authed.Route("/patients", func(p chi.Router) {
					p.With(can(policy.ActionList, policy.ResourcePatient)).Get("/", rt.Patients.List)
					p.With(can(policy.ActionCreate, policy.ResourcePatient)).Post("/", rt.Patients.Create)
					p.With(can(policy.ActionView, policy.ResourcePatient)).Get("/{id}", rt.Patients.Get)
				})

				authed.Route("/finance", func(f chi.Router) {
					f.With(can(policy.ActionList, policy.ResourceTransaction)).Get("/", rt.Finance.Summary)
					f.With(can(policy.ActionCreate, policy.ResourceTransaction)).Post("/transactions", rt.Finance.Record)
				})

				authed.Route("/admin/users", func(u chi.Router) {
					u.With(can(policy.ActionList, policy.ResourceUser)).Get("/", rt.Users.List)
					u.With(can(policy.ActionCreate, policy.ResourceUser)).Post("/", rt.Users.Create)
					u.With(can(policy.ActionUpdate, policy.ResourceUser)).Patch("/{id}/role", rt.Users.UpdateRole)
					u.With(can(policy.ActionUpdate, policy.ResourceUser)).Patch("/{id}/password", rt.Users.ResetPassword)
					u.With(can(policy.ActionDelete, policy.ResourceUser)).Delete("/{id}", rt.Users.Delete)
				})
			})
		})
	})

	return r
}
