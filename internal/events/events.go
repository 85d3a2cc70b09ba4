// Package events fans domain changes out to the live calendar feed and to
// an optional Kafka topic.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"physio-backend/internal/policy"
)

const (
	AppointmentCreated   = "appointment.created"
	AppointmentConfirmed = "appointment.confirmed"
	AppointmentSettled   = "appointment.settled"
	AppointmentCancelled = "appointment.cancelled"
	TransactionRecorded  = "transaction.recorded"
	PatientCreated       = "patient.created"
)

// Event is a change notification. Resource decides which roles may receive
// it on the live feed.
type Event struct {
	Type     string          `json:"type"`
	Resource policy.Resource `json:"resource"`
	ID       string          `json:"id"`
	At       time.Time       `json:"at"`
	Payload  interface{}     `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error { return nil }

// Bus publishes to every subscriber and joins their errors. Subscribers
// may be added after the bus was handed to publishers.
type Bus struct {
	mu   sync.RWMutex
	subs []Publisher
}

func NewBus(subs ...Publisher) *Bus {
	b := &Bus{}
	for _, p := range subs {
		b.Subscribe(p)
	}
	return b
}

func (b *Bus) Subscribe(p Publisher) {
	if p == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, p)
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Publisher, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, p := range subs {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
