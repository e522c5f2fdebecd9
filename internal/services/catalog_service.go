package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type ServiceInput struct {
	Name        string          `json:"name" validate:"required,max=191"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category" validate:"required,max=64"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Duration    int             `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Active      *bool           `json:"active"`
}

type PackageInput struct {
	Name        string             `json:"name" validate:"required,max=191"`
	Description string             `json:"description" validate:"max=2000"`
	Price       decimal.Decimal    `json:"price"`
	Services    []PackageItemInput `json:"services" validate:"min=1,dive"`
}

type PackageItemInput struct {
	ServiceID string `json:"service_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
}

type CatalogService struct {
	DB      *sqlx.DB
	Catalog *repos.CatalogRepo
}

func NewCatalogService(db *sqlx.DB) *CatalogService {
	return &CatalogService{DB: db, Catalog: repos.NewCatalogRepo(db)}
}

func (s *CatalogService) CreateService(ctx context.Context, in ServiceInput) (*domain.Service, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.BasePrice.IsNegative() {
		return nil, domain.Validation("base_price cannot be negative")
	}
	now := domain.Now()
	svc := domain.Service{
		ID: uuid.NewString(), Name: in.Name, Description: in.Description, Category: in.Category,
		BasePrice: in.BasePrice.Round(2), Duration: in.Duration, Active: in.Active == nil || *in.Active,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.Catalog.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// UpdateService changes catalog data only; prices already snapshotted into
// bookings are unaffected.
func (s *CatalogService) UpdateService(ctx context.Context, id string, in ServiceInput) (*domain.Service, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.BasePrice.IsNegative() {
		return nil, domain.Validation("base_price cannot be negative")
	}
	cur, err := s.Catalog.Service(ctx, id)
	if err != nil {
		return nil, err
	}
	cur.Name, cur.Description, cur.Category = in.Name, in.Description, in.Category
	cur.BasePrice, cur.Duration = in.BasePrice.Round(2), in.Duration
	if in.Active != nil {
		cur.Active = *in.Active
	}
	if err := s.Catalog.UpdateService(ctx, *cur); err != nil {
		return nil, err
	}
	return s.Catalog.Service(ctx, id)
}

func (s *CatalogService) Service(ctx context.Context, id string) (*domain.Service, error) {
	return s.Catalog.Service(ctx, id)
}

func (s *CatalogService) Services(ctx context.Context, activeOnly bool, category string) ([]domain.Service, error) {
	return s.Catalog.Services(ctx, activeOnly, category)
}

func (s *CatalogService) CreatePackage(ctx context.Context, in PackageInput) (*domain.ServicePackage, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, domain.Validation("price cannot be negative")
	}
	p := domain.ServicePackage{
		ID: uuid.NewString(), Name: in.Name, Description: in.Description, Price: in.Price.Round(2),
		Active: true, CreatedAt: domain.Now(),
	}
	seen := map[string]bool{}
	ids := make([]string, 0, len(in.Services))
	for _, it := range in.Services {
		if seen[it.ServiceID] {
			return nil, domain.Validation("service %s is listed twice", it.ServiceID)
		}
		seen[it.ServiceID] = true
		ids = append(ids, it.ServiceID)
		p.Items = append(p.Items, domain.PackageItem{PackageID: p.ID, ServiceID: it.ServiceID, Quantity: it.Quantity})
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		catalog := s.Catalog.WithTx(tx)
		found, err := catalog.ServicesByID(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return domain.Validation("invalid or inactive services")
		}
		return catalog.CreatePackage(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.Catalog.Package(ctx, p.ID)
}

func (s *CatalogService) Package(ctx context.Context, id string) (*domain.ServicePackage, error) {
	return s.Catalog.Package(ctx, id)
}

func (s *CatalogService) Packages(ctx context.Context) ([]domain.ServicePackage, error) {
	return s.Catalog.Packages(ctx)
}
