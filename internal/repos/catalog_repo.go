package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
)

type CatalogRepo struct{ q sqlx.ExtContext }

func NewCatalogRepo(q sqlx.ExtContext) *CatalogRepo { return &CatalogRepo{q: q} }

func (r *CatalogRepo) WithTx(tx *sqlx.Tx) *CatalogRepo { return &CatalogRepo{q: tx} }

const serviceCols = `id, name, description, category, base_price, duration_minutes, active, created_at, updated_at`

func (r *CatalogRepo) CreateService(ctx context.Context, s domain.Service) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO services(id,name,description,category,base_price,duration_minutes,active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.Description, s.Category, s.BasePrice, s.Duration, s.Active, s.CreatedAt, s.UpdatedAt)
	return wrap(err, "service")
}

func (r *CatalogRepo) UpdateService(ctx context.Context, s domain.Service) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE services SET name=?, description=?, category=?, base_price=?, duration_minutes=?, active=?, updated_at=?
		WHERE id=?`, s.Name, s.Description, s.Category, s.BasePrice, s.Duration, s.Active, domain.Now(), s.ID)
	if err != nil {
		return wrap(err, "service")
	}
	return requireRow(res, "service")
}

func (r *CatalogRepo) Service(ctx context.Context, id string) (*domain.Service, error) {
	var s domain.Service
	if err := sqlx.GetContext(ctx, r.q, &s, `SELECT `+serviceCols+` FROM services WHERE id=?`, id); err != nil {
		return nil, wrap(err, "service")
	}
	return &s, nil
}

func (r *CatalogRepo) Services(ctx context.Context, activeOnly bool, category string) ([]domain.Service, error) {
	q := `SELECT ` + serviceCols + ` FROM services WHERE 1=1`
	var args []any
	if activeOnly {
		q += ` AND active = ?`
		args = append(args, true)
	}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY category, name`
	out := []domain.Service{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "services")
}

// ServicesByID returns the subset of ids that exist, keyed by id.
func (r *CatalogRepo) ServicesByID(ctx context.Context, ids []string) (map[string]domain.Service, error) {
	out := map[string]domain.Service{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+serviceCols+` FROM services WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Service
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(q), args...); err != nil {
		return nil, wrap(err, "services")
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *CatalogRepo) CreatePackage(ctx context.Context, p domain.ServicePackage) error {
	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO service_packages(id,name,description,price,active,created_at)
		VALUES(?,?,?,?,?,?)`, p.ID, p.Name, p.Description, p.Price, p.Active, p.CreatedAt); err != nil {
		return wrap(err, "package")
	}
	for _, it := range p.Items {
		if _, err := r.q.ExecContext(ctx, `INSERT INTO package_services(package_id,service_id,quantity) VALUES(?,?,?)`,
			p.ID, it.ServiceID, it.Quantity); err != nil {
			return wrap(err, "package service")
		}
	}
	return nil
}

func (r *CatalogRepo) Package(ctx context.Context, id string) (*domain.ServicePackage, error) {
	var p domain.ServicePackage
	if err := sqlx.GetContext(ctx, r.q, &p, `SELECT id,name,description,price,active,created_at FROM service_packages WHERE id=?`, id); err != nil {
		return nil, wrap(err, "package")
	}
	items, err := r.packageItems(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return &p, nil
}

func (r *CatalogRepo) Packages(ctx context.Context) ([]domain.ServicePackage, error) {
	out := []domain.ServicePackage{}
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id,name,description,price,active,created_at FROM service_packages ORDER BY name`); err != nil {
		return nil, wrap(err, "packages")
	}
	for i := range out {
		items, err := r.packageItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *CatalogRepo) packageItems(ctx context.Context, id string) ([]domain.PackageItem, error) {
	items := []domain.PackageItem{}
	err := sqlx.SelectContext(ctx, r.q, &items, `
		SELECT ps.package_id, ps.service_id, s.name AS service_name, ps.quantity
		FROM package_services ps JOIN services s ON s.id = ps.service_id
		WHERE ps.package_id = ? ORDER BY s.name`, id)
	return items, wrap(err, "package services")
}
