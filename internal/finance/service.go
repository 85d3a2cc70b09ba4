// Package finance serves the ledger: period summaries split into gains and
// expenses, and manual entries.
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"physio-backend/internal/cache"
	"physio-backend/internal/events"
	"physio-backend/internal/models"
	"physio-backend/internal/period"
	"physio-backend/internal/policy"
	"physio-backend/internal/store"

	"github.com/google/uuid"
)

const cachePrefix = "finance:"

type Service struct {
	store  *store.Store
	cache  cache.Cache
	ttl    time.Duration
	events events.Publisher
	loc    *time.Location
	log    *slog.Logger
	now    func() time.Time
}

func New(s *store.Store, c cache.Cache, ttl time.Duration, pub events.Publisher, loc *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: s, cache: c, ttl: ttl, events: pub, loc: loc, log: log, now: time.Now}
}

// Summary is the ledger of one period. Gains, GainsTotal and Net are only
// filled for roles that may see revenue.
type Summary struct {
	Window        period.Window        `json:"window"`
	Expenses      []models.Transaction `json:"expenses"`
	ExpensesTotal float64              `json:"expenses_total"`
	Gains         []models.Transaction `json:"gains,omitempty"`
	GainsTotal    *float64             `json:"gains_total,omitempty"`
	Net           *float64             `json:"net,omitempty"`
}

func (s *Service) Summary(ctx context.Context, actor models.Profile, window period.Window) (Summary, error) {
	if err := policy.Authorize(actor.Role, policy.ActionList, policy.ResourceTransaction); err != nil {
		return Summary{}, err
	}
	revenue := policy.Can(actor.Role, policy.ActionList, policy.ResourceRevenue)

	key := cacheKey(revenue, window)
	var cached Summary
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	txs, err := s.store.Transactions.List(ctx, store.TransactionFilter{From: window.Start, To: window.End})
	if err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })

	out := Summary{Window: window, Expenses: []models.Transaction{}}
	var gains []models.Transaction
	var gainsTotal float64
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionGain:
			gains = append(gains, tx)
			gainsTotal += tx.Amount
		case models.TransactionExpense:
			out.Expenses = append(out.Expenses, tx)
			out.ExpensesTotal += tx.Amount
		}
	}
	if revenue {
		if gains == nil {
			gains = []models.Transaction{}
		}
		net := gainsTotal - out.ExpensesTotal
		out.Gains = gains
		out.GainsTotal = &gainsTotal
		out.Net = &net
	}

	if err := cache.SetJSON(ctx, s.cache, key, out, s.ttl); err != nil && s.log != nil {
		s.log.Warn("finance cache: set failed", slog.String("error", err.Error()))
	}
	return out, nil
}

func cacheKey(revenue bool, w period.Window) string {
	scope := "expenses"
	if revenue {
		scope = "full"
	}
	return cachePrefix + scope + ":" + w.Key()
}

type RecordInput struct {
	Type     models.TransactionType
	Amount   float64
	Category string
	Method   models.PaymentMethod
	// Date is "2006-01-02"; empty means now.
	Date string
}

// Record adds a manual ledger entry. Recording a gain needs the revenue
// grant on top of transaction:create.
func (s *Service) Record(ctx context.Context, actor models.Profile, in RecordInput) (models.Transaction, error) {
	if err := policy.Authorize(actor.Role, policy.ActionCreate, policy.ResourceTransaction); err != nil {
		return models.Transaction{}, err
	}
	if !models.IsValidTransactionType(string(in.Type)) {
		return models.Transaction{}, models.InvalidField("type", "unknown transaction type")
	}
	resource := policy.ResourceTransaction
	if in.Type == models.TransactionGain {
		resource = policy.ResourceRevenue
		if err := policy.Authorize(actor.Role, policy.ActionCreate, resource); err != nil {
			return models.Transaction{}, err
		}
	}
	if in.Amount <= 0 {
		return models.Transaction{}, models.InvalidField("amount", "must be positive")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return models.Transaction{}, models.InvalidField("category", "required")
	}
	method := in.Method
	if method == "" {
		method = models.PaymentCash
	}
	if !models.IsValidPaymentMethod(string(method)) {
		return models.Transaction{}, models.InvalidField("method", "unknown payment method")
	}

	date, err := s.entryDate(in.Date)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:       uuid.NewString(),
		Type:     in.Type,
		Category: category,
		Method:   method,
		Amount:   in.Amount,
		Date:     date,
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if err := s.Invalidate(ctx); err != nil && s.log != nil {
		s.log.Warn("finance cache: invalidate failed", slog.String("error", err.Error()))
	}
	err = s.events.Publish(ctx, events.Event{
		Type:     events.TransactionRecorded,
		Resource: resource,
		ID:       tx.ID,
		At:       s.now(),
		Payload:  tx,
	})
	if err != nil && s.log != nil {
		s.log.Warn("finance events: publish failed", slog.String("error", err.Error()))
	}
	return tx, nil
}

// entryDate places a dated entry on that day at the current time of day,
// so same-day entries keep their order.
func (s *Service) entryDate(raw string) (time.Time, error) {
	now := s.now().In(s.loc)
	if strings.TrimSpace(raw) == "" {
		return now, nil
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, models.InvalidField("date", "expected YYYY-MM-DD")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, s.loc), nil
}

// Invalidate drops every cached summary.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.DeletePrefix(ctx, cachePrefix)
}

// Publish lets the service subscribe to the event bus: any appointment or
// ledger change invalidates cached summaries.
func (s *Service) Publish(ctx context.Context, event events.Event) error {
	return s.Invalidate(ctx)
}
