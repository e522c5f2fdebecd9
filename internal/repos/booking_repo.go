package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
)

type BookingRepo struct{ q sqlx.ExtContext }

func NewBookingRepo(q sqlx.ExtContext) *BookingRepo { return &BookingRepo{q: q} }

func (r *BookingRepo) WithTx(tx *sqlx.Tx) *BookingRepo { return &BookingRepo{q: tx} }

const bookingCols = `id, customer_id, vehicle_id, booking_date, booking_time, status, total_amount, notes, source, created_at, updated_at`

type BookingFilter struct {
	Status     string
	CustomerID string
	From, To   string // inclusive YYYY-MM-DD bounds
	Limit      int
	Offset     int
}

func (r *BookingRepo) Insert(ctx context.Context, b domain.Booking) error {
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO bookings(id,customer_id,vehicle_id,booking_date,booking_time,status,total_amount,notes,source,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.CustomerID, b.VehicleID, b.Date, b.Time, b.Status, b.TotalAmount, b.Notes, b.Source, b.CreatedAt, b.UpdatedAt); err != nil {
		return wrap(err, "booking")
	}
	return r.insertItems(ctx, b.ID, b.Items)
}

func (r *BookingRepo) insertItems(ctx context.Context, bookingID string, items []domain.LineItem) error {
	for i, it := range items {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO booking_services(booking_id,service_id,quantity,price,ordinal) VALUES(?,?,?,?,?)`,
			bookingID, it.ServiceID, it.Quantity, it.Price, i); err != nil {
			return wrap(err, "booking service")
		}
	}
	return nil
}

// ReplaceItems swaps the line items and writes the new header fields.
func (r *BookingRepo) ReplaceItems(ctx context.Context, b domain.Booking) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM booking_services WHERE booking_id=?`, b.ID); err != nil {
		return wrap(err, "booking services")
	}
	if err := r.insertItems(ctx, b.ID, b.Items); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		UPDATE bookings SET vehicle_id=?, booking_date=?, booking_time=?, total_amount=?, notes=?, updated_at=? WHERE id=?`,
		b.VehicleID, b.Date, b.Time, b.TotalAmount, b.Notes, domain.Now(), b.ID)
	return wrap(err, "booking")
}

// Get loads the header and items. lock row-locks the header on MySQL.
func (r *BookingRepo) Get(ctx context.Context, id string, lock bool) (*domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE id=?`
	if lock {
		q += lockClause(r.q)
	}
	var b domain.Booking
	if err := sqlx.GetContext(ctx, r.q, &b, q, id); err != nil {
		return nil, wrap(err, "booking")
	}
	items, err := r.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func (r *BookingRepo) Items(ctx context.Context, bookingID string) ([]domain.LineItem, error) {
	items := []domain.LineItem{}
	err := sqlx.SelectContext(ctx, r.q, &items, `
		SELECT bs.booking_id, bs.service_id, s.name AS service_name, bs.quantity, bs.price, bs.ordinal
		FROM booking_services bs JOIN services s ON s.id = bs.service_id
		WHERE bs.booking_id = ? ORDER BY bs.ordinal`, bookingID)
	return items, wrap(err, "booking services")
}

func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	var args []any
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.CustomerID != "" {
		q += ` AND customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.From != "" {
		q += ` AND booking_date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		q += ` AND booking_date <= ?`
		args = append(args, f.To)
	}
	q += ` ORDER BY booking_date DESC, booking_time DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)
	out := []domain.Booking{}
	if err := sqlx.SelectContext(ctx, r.q, &out, q, args...); err != nil {
		return nil, wrap(err, "bookings")
	}
	for i := range out {
		items, err := r.Items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *BookingRepo) SetStatus(ctx context.Context, id, status, notes string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE bookings SET status=?, notes=?, updated_at=? WHERE id=?`,
		status, notes, domain.Now(), id)
	return wrap(err, "booking")
}
