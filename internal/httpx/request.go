package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"physio-backend/internal/middleware"
	"physio-backend/internal/models"
	"physio-backend/internal/period"
)

// RequestLogger returns log tagged with the request id.
func RequestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	if r == nil {
		return log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return log.With(slog.String("request_id", id))
	}
	return log
}

// Actor is the session profile. Routes are mounted behind RequireAuth, so
// a missing profile yields the zero value which no policy grants.
func Actor(r *http.Request) models.Profile {
	if p := middleware.ProfileFromContext(r.Context()); p != nil {
		return *p
	}
	return models.Profile{}
}

// ParseWindow reads ?period=day|week|month|year&date=... into a window.
func ParseWindow(r *http.Request, loc *time.Location, now time.Time) (period.Window, error) {
	q := r.URL.Query()
	g, err := period.ParseGranularity(q.Get("period"))
	if err != nil {
		return period.Window{}, err
	}
	anchor, err := period.ParseAnchor(strings.TrimSpace(q.Get("date")), loc, now)
	if err != nil {
		return period.Window{}, err
	}
	return period.NewWindow(g, anchor, loc), nil
}
