package events

import (
	"context"
	"sync"

	applog "detailhub/internal/log"
)

const (
	BookingStatusChanged = "booking.status_changed"
	BookingConfirmed     = "booking.confirmed"
	BookingCompleted     = "booking.completed"
	BookingCancelled     = "booking.cancelled"
	JobCardDelivered     = "jobcard.delivered"
	InvoicePaid          = "invoice.paid"
)

type Event struct {
	Name      string
	BookingID string
	JobCardID string
	InvoiceID string
	From, To  string
	ActorID   string
}

type Handler func(ctx context.Context, ev Event) error

// Bus delivers events synchronously, in subscription order, to every
// handler registered for the event name. Publishers call it only after their
// transaction has committed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish runs the handlers; a failing handler is logged and does not stop
// the rest or reach the publisher.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Name]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			applog.Error(nil, "event.handler.fail", err, map[string]any{
				"event": ev.Name, "booking_id": ev.BookingID, "job_card_id": ev.JobCardID,
			})
		}
	}
}
