package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
)

type StaffRepo struct{ q sqlx.ExtContext }

func NewStaffRepo(q sqlx.ExtContext) *StaffRepo { return &StaffRepo{q: q} }

func (r *StaffRepo) WithTx(tx *sqlx.Tx) *StaffRepo { return &StaffRepo{q: tx} }

const staffCols = `s.id, s.user_id, s.name, u.email, s.phone, s.position, u.role, s.active, s.created_at`

func (r *StaffRepo) Create(ctx context.Context, s domain.Staff) error {
	if s.CreatedAt == "" {
		s.CreatedAt = domain.Now()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO staff(id,user_id,name,phone,position,active,created_at)
		VALUES(?,?,?,?,?,?,?)`, s.ID, s.UserID, s.Name, s.Phone, s.Position, s.Active, s.CreatedAt)
	return wrap(err, "staff member")
}

func (r *StaffRepo) Get(ctx context.Context, id string) (*domain.Staff, error) {
	var s domain.Staff
	err := sqlx.GetContext(ctx, r.q, &s, `SELECT `+staffCols+` FROM staff s JOIN users u ON u.id = s.user_id WHERE s.id=?`, id)
	if err != nil {
		return nil, wrap(err, "staff member")
	}
	return &s, nil
}

func (r *StaffRepo) List(ctx context.Context, position string) ([]domain.Staff, error) {
	q := `SELECT ` + staffCols + ` FROM staff s JOIN users u ON u.id = s.user_id`
	var args []any
	if position != "" {
		q += ` WHERE s.position = ?`
		args = append(args, position)
	}
	q += ` ORDER BY s.name`
	out := []domain.Staff{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "staff")
}

func (r *StaffRepo) Update(ctx context.Context, s domain.Staff) error {
	_, err := r.q.ExecContext(ctx, `UPDATE staff SET name=?, phone=?, position=?, active=? WHERE id=?`,
		s.Name, s.Phone, s.Position, s.Active, s.ID)
	return wrap(err, "staff member")
}
