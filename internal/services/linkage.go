package services

import (
	"context"

	"detailhub/internal/config"
	"detailhub/internal/domain"
	"detailhub/internal/events"
	applog "detailhub/internal/log"
)

// RegisterLinkage subscribes the enabled automatic reactions. With every
// flag off, bookings, job cards and invoices move only when staff move them.
func RegisterLinkage(bus *events.Bus, pol config.Linkage, bookings *BookingService, jobs *JobCardService, billing *BillingService) {
	if pol.AutoJobCard {
		bus.Subscribe(events.BookingConfirmed, func(ctx context.Context, ev events.Event) error {
			_, err := jobs.Create(ctx, CreateJobCardInput{BookingID: ev.BookingID})
			if domain.IsConflict(err) {
				return nil
			}
			if err == nil {
				applog.Info(nil, "linkage.jobcard.created", map[string]any{"booking_id": ev.BookingID})
			}
			return err
		})
	}

	if pol.AutoCompleteBooking {
		bus.Subscribe(events.JobCardDelivered, func(ctx context.Context, ev events.Event) error {
			b, err := bookings.Get(ctx, ev.BookingID)
			if err != nil {
				return err
			}
			// Walk the booking forward to completed one legal step at a time.
			moved := false
			for _, next := range []string{domain.BookingConfirmed, domain.BookingInProgress, domain.BookingCompleted} {
				if domain.BookingTerminal(b.Status) {
					break
				}
				if !domain.CanTransitionBooking(b.Status, next) {
					continue
				}
				if b, err = bookings.TransitionStatus(ctx, b.ID, next, "job card delivered", ev.ActorID); err != nil {
					return err
				}
				moved = true
			}
			if moved && b.Status == domain.BookingCompleted {
				applog.Info(nil, "linkage.booking.completed", map[string]any{"booking_id": ev.BookingID})
			}
			return nil
		})
	}

	if pol.AutoInvoice {
		bus.Subscribe(events.BookingCompleted, func(ctx context.Context, ev events.Event) error {
			inv, err := billing.GenerateInvoice(ctx, GenerateInvoiceInput{BookingID: ev.BookingID})
			if domain.IsConflict(err) {
				return nil
			}
			if err == nil {
				applog.Info(nil, "linkage.invoice.generated", map[string]any{"booking_id": ev.BookingID, "invoice": inv.InvoiceNumber})
			}
			return err
		})
	}
}
