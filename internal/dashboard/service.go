// Package dashboard aggregates a period's appointments and ledger into the
// headline figures and a chart series.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"physio-backend/internal/cache"
	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/period"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"
)

const cachePrefix = "dashboard:"

type Service struct {
	store *store.Store
	cache cache.Cache
	ttl   time.Duration
	loc   *time.Location
	log   *slog.Logger
}

func New(s *store.Store, c cache.Cache, ttl time.Duration, loc *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Service{store: s, cache: c, ttl: ttl, loc: loc, log: log}
}

type KPIs struct {
	AppointmentsCount int      `json:"appointments_count"`
	NetProfit         *float64 `json:"net_profit,omitempty"`
	PendingCount      int      `json:"pending_count"`
	PatientsCount     int      `json:"patients_count"`
}

// Point is one bucket of the chart. Key orders the buckets: month index,
// day of month, weekday index or hour depending on the window.
type Point struct {
	Key     int     `json:"key"`
	Label   string  `json:"name"`
	Gain    float64 `json:"gain"`
	Depense float64 `json:"depense"`
}

type Overview struct {
	Window period.Window `json:"window"`
	KPIs   KPIs          `json:"kpis"`
	Series []Point       `json:"series"`
}

func (s *Service) Overview(ctx context.Context, actor models.Profile, window period.Window) (Overview, error) {
	if err := policy.Authorize(actor.Role, policy.ActionView, policy.ResourceDashboard); err != nil {
		return Overview{}, err
	}
	showNet := actor.Role != models.RoleTherapist

	key := cacheKey(showNet, window)
	var cached Overview
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	appointments, err := s.store.Appointments.List(ctx, store.AppointmentFilter{From: window.Start, To: window.End})
	if err != nil {
		return Overview{}, fmt.Errorf("list appointments: %w", err)
	}
	txs, err := s.store.Transactions.List(ctx, store.TransactionFilter{From: window.Start, To: window.End})
	if err != nil {
		return Overview{}, fmt.Errorf("list transactions: %w", err)
	}
	patients, err := s.store.Patients.List(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("list patients: %w", err)
	}

	out := Overview{
		Window: window,
		KPIs: KPIs{
			AppointmentsCount: len(appointments),
			PatientsCount:     len(patients),
		},
		Series: Series(window.Granularity, txs, s.loc),
	}
	for _, a := range appointments {
		if a.Status == models.StatusPending {
			out.KPIs.PendingCount++
		}
	}
	if showNet {
		var net float64
		for _, tx := range txs {
			switch tx.Type {
			case models.TransactionGain:
				net += tx.Amount
			case models.TransactionExpense:
				net -= tx.Amount
			}
		}
		out.KPIs.NetProfit = &net
	}

	if err := cache.SetJSON(ctx, s.cache, key, out, s.ttl); err != nil && s.log != nil {
		s.log.Warn("dashboard cache: set failed", slog.String("error", err.Error()))
	}
	return out, nil
}

// Series buckets transactions for the chart. Only buckets holding at least
// one entry are returned, ordered by key.
func Series(g period.Granularity, txs []models.Transaction, loc *time.Location) []Point {
	byKey := make(map[int]*Point)
	for _, tx := range txs {
		k, label := period.Bucket(g, tx.Date, loc)
		p, ok := byKey[k]
		if !ok {
			p = &Point{Key: k, Label: label}
			byKey[k] = p
		}
		switch tx.Type {
		case models.TransactionGain:
			p.Gain += tx.Amount
		case models.TransactionExpense:
			p.Depense += tx.Amount
		}
	}
	out := make([]Point, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func cacheKey(showNet bool, w period.Window) string {
	scope := "kpi"
	if showNet {
		scope = "net"
	}
	return cachePrefix + scope + ":" + w.Key()
}

func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.DeletePrefix(ctx, cachePrefix)
}

// Publish subscribes the dashboard to the event bus; every change drops
// the cached overviews.
func (s *Service) Publish(ctx context.Context, event events.Event) error {
	return s.Invalidate(ctx)
}
