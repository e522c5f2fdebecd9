package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
)

type CustomerRepo struct{ q sqlx.ExtContext }

func NewCustomerRepo(q sqlx.ExtContext) *CustomerRepo { return &CustomerRepo{q: q} }

func (r *CustomerRepo) WithTx(tx *sqlx.Tx) *CustomerRepo { return &CustomerRepo{q: tx} }

const customerCols = `id, name, phone, email, address, total_spent, last_visit, created_at, updated_at`

func (r *CustomerRepo) Create(ctx context.Context, c domain.Customer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO customers(id,name,phone,email,address,total_spent,last_visit,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.TotalSpent, c.LastVisit, c.CreatedAt, c.UpdatedAt)
	return wrap(err, "customer")
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	if err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+customerCols+` FROM customers WHERE id=?`, id); err != nil {
		return nil, wrap(err, "customer")
	}
	return &c, nil
}

func (r *CustomerRepo) ByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var c domain.Customer
	if err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+customerCols+` FROM customers WHERE phone=?`, phone); err != nil {
		return nil, wrap(err, "customer")
	}
	return &c, nil
}

// List matches search against name, phone and email.
func (r *CustomerRepo) List(ctx context.Context, search string, limit, offset int) ([]domain.Customer, error) {
	q := `SELECT ` + customerCols + ` FROM customers`
	var args []any
	if search != "" {
		like := "%" + search + "%"
		q += ` WHERE LOWER(name) LIKE LOWER(?) OR phone LIKE ? OR LOWER(email) LIKE LOWER(?)`
		args = append(args, like, like, like)
	}
	q += ` ORDER BY name LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	out := []domain.Customer{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "customers")
}

func (r *CustomerRepo) Update(ctx context.Context, c domain.Customer) error {
	res, err := r.q.ExecContext(ctx, `UPDATE customers SET name=?, phone=?, email=?, address=?, updated_at=? WHERE id=?`,
		c.Name, c.Phone, c.Email, c.Address, domain.Now(), c.ID)
	if err != nil {
		return wrap(err, "customer")
	}
	return requireRow(res, "customer")
}

// Delete cascades to vehicles, bookings and everything hanging off them.
func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM customers WHERE id=?`, id)
	if err != nil {
		return wrap(err, "customer")
	}
	return requireRow(res, "customer")
}

// RefreshAggregates recomputes total_spent from paid invoices and last_visit
// from completed bookings.
func (r *CustomerRepo) RefreshAggregates(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE customers SET
		  total_spent = (SELECT COALESCE(SUM(b.paid_amount),0) FROM billing b
		                 WHERE b.customer_id = customers.id AND b.payment_status = 'paid'),
		  last_visit  = (SELECT MAX(k.booking_date) FROM bookings k
		                 WHERE k.customer_id = customers.id AND k.status = 'completed'),
		  updated_at  = ?
		WHERE id = ?`, domain.Now(), id)
	return wrap(err, "customer")
}

func (r *CustomerRepo) CreateVehicle(ctx context.Context, v domain.Vehicle) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO vehicles(id,customer_id,brand,model,year,color,type,registration_number,created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		v.ID, v.CustomerID, v.Brand, v.Model, v.Year, v.Color, v.Type, v.Registration, v.CreatedAt)
	return wrap(err, "vehicle")
}

const vehicleCols = `id, customer_id, brand, model, year, color, type, registration_number, created_at`

func (r *CustomerRepo) Vehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := sqlx.GetContext(ctx, r.q, &v, `SELECT `+vehicleCols+` FROM vehicles WHERE id=?`, id); err != nil {
		return nil, wrap(err, "vehicle")
	}
	return &v, nil
}

func (r *CustomerRepo) VehicleByRegistration(ctx context.Context, customerID, reg string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := sqlx.GetContext(ctx, r.q, &v, `SELECT `+vehicleCols+` FROM vehicles
		WHERE customer_id=? AND UPPER(registration_number)=UPPER(?)`, customerID, reg)
	if err != nil {
		return nil, wrap(err, "vehicle")
	}
	return &v, nil
}

func (r *CustomerRepo) Vehicles(ctx context.Context, customerID string) ([]domain.Vehicle, error) {
	out := []domain.Vehicle{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+vehicleCols+` FROM vehicles WHERE customer_id=? ORDER BY created_at`, customerID)
	return out, wrap(err, "vehicles")
}
