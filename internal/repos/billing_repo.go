package repos

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
)

type BillingRepo struct{ q sqlx.ExtContext }

func NewBillingRepo(q sqlx.ExtContext) *BillingRepo { return &BillingRepo{q: q} }

func (r *BillingRepo) WithTx(tx *sqlx.Tx) *BillingRepo { return &BillingRepo{q: tx} }

const invoiceCols = `b.id, b.invoice_number, b.booking_id, b.customer_id, c.name AS customer_name,
  b.subtotal, b.tax_rate, b.tax_amount, b.discount_amount, b.total_amount, b.payment_status,
  b.payment_method, b.paid_amount, b.notes, b.created_at, b.updated_at, b.paid_at`

const invoiceFrom = ` FROM billing b JOIN customers c ON c.id = b.customer_id`

func (r *BillingRepo) Insert(ctx context.Context, inv domain.Invoice) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO billing(id,invoice_number,booking_id,customer_id,subtotal,tax_rate,tax_amount,discount_amount,
		  total_amount,payment_status,payment_method,paid_amount,notes,created_at,updated_at,paid_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		inv.ID, inv.InvoiceNumber, inv.BookingID, inv.CustomerID, inv.Subtotal, inv.TaxRate, inv.TaxAmount,
		inv.DiscountAmount, inv.TotalAmount, inv.PaymentStatus, inv.PaymentMethod, inv.PaidAmount, inv.Notes,
		inv.CreatedAt, inv.UpdatedAt, inv.PaidAt)
	return wrap(err, "invoice")
}

func (r *BillingRepo) Get(ctx context.Context, id string, lock bool) (*domain.Invoice, error) {
	q := `SELECT ` + invoiceCols + invoiceFrom + ` WHERE b.id=?`
	if lock {
		q += lockClause(r.q)
	}
	var inv domain.Invoice
	if err := sqlx.GetContext(ctx, r.q, &inv, q, id); err != nil {
		return nil, wrap(err, "invoice")
	}
	return &inv, nil
}

func (r *BillingRepo) ByBooking(ctx context.Context, bookingID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := sqlx.GetContext(ctx, r.q, &inv, `SELECT `+invoiceCols+invoiceFrom+` WHERE b.booking_id=?`, bookingID); err != nil {
		return nil, wrap(err, "invoice")
	}
	return &inv, nil
}

func (r *BillingRepo) List(ctx context.Context, status string, limit, offset int) ([]domain.Invoice, error) {
	q := `SELECT ` + invoiceCols + invoiceFrom
	var args []any
	if status != "" {
		q += ` WHERE b.payment_status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY b.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	out := []domain.Invoice{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "invoices")
}

func (r *BillingRepo) Outstanding(ctx context.Context) ([]domain.Invoice, error) {
	out := []domain.Invoice{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+invoiceCols+invoiceFrom+`
		WHERE b.payment_status IN ('pending','partial') ORDER BY b.created_at`)
	return out, wrap(err, "outstanding invoices")
}

func (r *BillingRepo) UpdatePayment(ctx context.Context, inv domain.Invoice) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE billing SET payment_status=?, payment_method=?, paid_amount=?, notes=?, paid_at=?, updated_at=?
		WHERE id=?`, inv.PaymentStatus, inv.PaymentMethod, inv.PaidAmount, inv.Notes, inv.PaidAt, domain.Now(), inv.ID)
	return wrap(err, "invoice")
}

// NextInvoiceNumber returns INV-<year>-<seq> one past the highest number
// issued for that year.
func (r *BillingRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var last []string
	if err := sqlx.SelectContext(ctx, r.q, &last, `
		SELECT invoice_number FROM billing WHERE invoice_number LIKE ?
		ORDER BY invoice_number DESC LIMIT 1`, prefix+"%"); err != nil {
		return "", wrap(err, "invoice number")
	}
	seq := 1
	if len(last) == 1 {
		if n, err := strconv.Atoi(strings.TrimPrefix(last[0], prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

type billingTotals struct {
	Count  int             `db:"invoice_count"`
	Billed decimal.Decimal `db:"total_billed"`
	Paid   decimal.Decimal `db:"total_paid"`
	Open   decimal.Decimal `db:"total_outstanding"`
}

// Stats leaves refunded invoices out of paid and outstanding.
func (r *BillingRepo) Stats(ctx context.Context) (domain.BillingStats, error) {
	var t billingTotals
	err := sqlx.GetContext(ctx, r.q, &t, `
		SELECT COUNT(*) AS invoice_count,
		       COALESCE(SUM(total_amount), 0) AS total_billed,
		       COALESCE(SUM(CASE WHEN payment_status <> 'refunded' THEN paid_amount ELSE 0 END), 0) AS total_paid,
		       COALESCE(SUM(CASE WHEN payment_status IN ('pending','partial') THEN total_amount - paid_amount ELSE 0 END), 0) AS total_outstanding
		FROM billing`)
	if err != nil {
		return domain.BillingStats{}, wrap(err, "billing stats")
	}
	return domain.BillingStats{
		InvoiceCount:     t.Count,
		TotalBilled:      t.Billed.Round(2),
		TotalPaid:        t.Paid.Round(2),
		TotalOutstanding: t.Open.Round(2),
	}, nil
}
