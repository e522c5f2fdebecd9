package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	"detailhub/internal/events"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type GenerateInvoiceInput struct {
	BookingID string          `json:"booking_id" validate:"required"`
	Discount  decimal.Decimal `json:"discount_amount"`
	Notes     string          `json:"notes" validate:"max=1000"`
}

type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer other"`
	Notes  string          `json:"notes" validate:"max=1000"`
}

const numberAttempts = 8

var errNumberTaken = errors.New("invoice number taken")

type BillingService struct {
	DB        *sqlx.DB
	Billing   *repos.BillingRepo
	Bookings  *repos.BookingRepo
	Customers *repos.CustomerRepo
	TaxRate   decimal.Decimal
	Events    *events.Bus
}

func NewBillingService(db *sqlx.DB, taxRate decimal.Decimal, bus *events.Bus) *BillingService {
	return &BillingService{
		DB:        db,
		Billing:   repos.NewBillingRepo(db),
		Bookings:  repos.NewBookingRepo(db),
		Customers: repos.NewCustomerRepo(db),
		TaxRate:   taxRate,
		Events:    bus,
	}
}

// GenerateInvoice bills a booking once. The subtotal comes from the booking's
// snapshotted line items, tax is rounded to cents.
func (s *BillingService) GenerateInvoice(ctx context.Context, in GenerateInvoiceInput) (*domain.Invoice, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Discount.IsNegative() {
		return nil, domain.Validation("discount_amount cannot be negative")
	}
	var id string
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		id, err = s.generate(ctx, in)
		if !errors.Is(err, errNumberTaken) {
			break
		}
	}
	if errors.Is(err, errNumberTaken) {
		return nil, domain.Conflict("could not allocate an invoice number, try again")
	}
	if err != nil {
		return nil, err
	}
	return s.Billing.Get(ctx, id, false)
}

// generate runs one attempt. Two writers can compute the same next number;
// the loser gets errNumberTaken and the caller retries.
func (s *BillingService) generate(ctx context.Context, in GenerateInvoiceInput) (string, error) {
	var id string
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		b, err := s.Bookings.WithTx(tx).Get(ctx, in.BookingID, true)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingCancelled {
			return domain.Validation("cannot invoice a cancelled booking")
		}
		billing := s.Billing.WithTx(tx)
		if _, err := billing.ByBooking(ctx, b.ID); err == nil {
			return domain.Conflict("booking already has an invoice")
		} else if !domain.IsNotFound(err) {
			return err
		}

		subtotal := domain.LineTotal(b.Items).Round(2)
		tax := subtotal.Mul(s.TaxRate).Round(2)
		gross := subtotal.Add(tax)
		if in.Discount.GreaterThan(gross) {
			return domain.Validation("discount exceeds invoice amount")
		}
		number, err := billing.NextInvoiceNumber(ctx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		now := domain.Now()
		inv := domain.Invoice{
			ID: uuid.NewString(), InvoiceNumber: number, BookingID: b.ID, CustomerID: b.CustomerID,
			Subtotal: subtotal, TaxRate: s.TaxRate, TaxAmount: tax, DiscountAmount: in.Discount.Round(2),
			TotalAmount: gross.Sub(in.Discount).Round(2), PaymentStatus: domain.PaymentPending,
			PaidAmount: decimal.Zero, Notes: in.Notes, CreatedAt: now, UpdatedAt: now,
		}
		id = inv.ID
		if err := billing.Insert(ctx, inv); err != nil {
			if domain.IsConflict(err) {
				return errNumberTaken
			}
			return err
		}
		return nil
	})
	return id, err
}

// RecordPayment sets the amount paid so far to in.Amount; it does not add to
// the previous value.
func (s *BillingService) RecordPayment(ctx context.Context, id string, in PaymentInput) (*domain.Invoice, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, domain.Validation("amount cannot be negative")
	}
	becamePaid := false
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		billing := s.Billing.WithTx(tx)
		inv, err := billing.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if inv.PaymentStatus == domain.PaymentRefunded {
			return domain.Validation("invoice has been refunded")
		}
		if in.Amount.GreaterThan(inv.TotalAmount) {
			return domain.Validation("payment exceeds invoice total")
		}
		prev := inv.PaymentStatus
		inv.PaidAmount = in.Amount.Round(2)
		inv.PaymentStatus = domain.PaymentStatusFor(inv.PaidAmount, inv.TotalAmount)
		inv.PaymentMethod = &in.Method
		inv.Notes = appendNote(inv.Notes, in.Notes)
		if inv.PaymentStatus == domain.PaymentPaid {
			if prev != domain.PaymentPaid {
				now := domain.Now()
				inv.PaidAt = &now
				becamePaid = true
			}
		} else {
			inv.PaidAt = nil
		}
		if err := billing.UpdatePayment(ctx, *inv); err != nil {
			return err
		}
		return s.Customers.WithTx(tx).RefreshAggregates(ctx, inv.CustomerID)
	})
	if err != nil {
		return nil, err
	}
	if becamePaid {
		s.Events.Publish(ctx, events.Event{Name: events.InvoicePaid, InvoiceID: id})
	}
	return s.Billing.Get(ctx, id, false)
}

// Refund marks a paid or part-paid invoice refunded. paid_amount is kept as
// the record of what was returned.
func (s *BillingService) Refund(ctx context.Context, id, note string) (*domain.Invoice, error) {
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		billing := s.Billing.WithTx(tx)
		inv, err := billing.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if inv.PaymentStatus != domain.PaymentPaid && inv.PaymentStatus != domain.PaymentPartial {
			return domain.Validation("only paid or partially paid invoices can be refunded")
		}
		inv.PaymentStatus = domain.PaymentRefunded
		inv.Notes = appendNote(inv.Notes, note)
		if err := billing.UpdatePayment(ctx, *inv); err != nil {
			return err
		}
		return s.Customers.WithTx(tx).RefreshAggregates(ctx, inv.CustomerID)
	})
	if err != nil {
		return nil, err
	}
	return s.Billing.Get(ctx, id, false)
}

func (s *BillingService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.Billing.Get(ctx, id, false)
}

func (s *BillingService) List(ctx context.Context, status string, limit, offset int) ([]domain.Invoice, error) {
	if status != "" && !contains([]string{domain.PaymentPending, domain.PaymentPaid, domain.PaymentPartial, domain.PaymentRefunded}, status) {
		return nil, domain.Validation("unknown payment status %q", status)
	}
	limit, offset = page(limit, offset)
	return s.Billing.List(ctx, status, limit, offset)
}

type OutstandingInvoice struct {
	domain.Invoice
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

func (s *BillingService) ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error) {
	invs, err := s.Billing.Outstanding(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OutstandingInvoice, 0, len(invs))
	for _, inv := range invs {
		out = append(out, OutstandingInvoice{Invoice: inv, OutstandingAmount: inv.Outstanding()})
	}
	return out, nil
}

func (s *BillingService) Stats(ctx context.Context) (domain.BillingStats, error) {
	return s.Billing.Stats(ctx)
}

// PrintView gathers what the printable invoice page needs.
type PrintView struct {
	Invoice  *domain.Invoice
	Booking  *domain.Booking
	Customer *domain.Customer
}

func (s *BillingService) PrintView(ctx context.Context, id string) (*PrintView, error) {
	inv, err := s.Billing.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	b, err := s.Bookings.Get(ctx, inv.BookingID, false)
	if err != nil {
		return nil, err
	}
	c, err := s.Customers.Get(ctx, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	return &PrintView{Invoice: inv, Booking: b, Customer: c}, nil
}
