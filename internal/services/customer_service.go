package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type CustomerInput struct {
	Name    string `json:"name" validate:"required,max=191"`
	Phone   string `json:"phone" validate:"required,phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=500"`
}

type VehicleInput struct {
	Brand        string `json:"brand" validate:"required,max=64"`
	Model        string `json:"model" validate:"required,max=64"`
	Year         int    `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Color        string `json:"color" validate:"max=32"`
	Type         string `json:"type" validate:"max=32"`
	Registration string `json:"registration_number" validate:"required,regno"`
}

type CustomerService struct {
	DB        *sqlx.DB
	Customers *repos.CustomerRepo
}

func NewCustomerService(db *sqlx.DB) *CustomerService {
	return &CustomerService{DB: db, Customers: repos.NewCustomerRepo(db)}
}

func newCustomer(in CustomerInput) domain.Customer {
	now := domain.Now()
	return domain.Customer{
		ID: uuid.NewString(), Name: strings.TrimSpace(in.Name), Phone: strings.TrimSpace(in.Phone),
		Email: strings.TrimSpace(in.Email), Address: in.Address, TotalSpent: decimal.Zero,
		CreatedAt: now, UpdatedAt: now,
	}
}

func newVehicle(customerID string, in VehicleInput) domain.Vehicle {
	return domain.Vehicle{
		ID: uuid.NewString(), CustomerID: customerID, Brand: in.Brand, Model: in.Model, Year: in.Year,
		Color: in.Color, Type: in.Type, Registration: strings.ToUpper(strings.TrimSpace(in.Registration)),
		CreatedAt: domain.Now(),
	}
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := newCustomer(in)
	if err := s.Customers.Create(ctx, c); err != nil {
		if domain.IsConflict(err) {
			return nil, domain.Conflict("a customer with phone %s already exists", c.Phone)
		}
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.Customers.Get(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, search string, limit, offset int) ([]domain.Customer, error) {
	limit, offset = page(limit, offset)
	return s.Customers.List(ctx, strings.TrimSpace(search), limit, offset)
}

func (s *CustomerService) Update(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := newCustomer(in)
	c.ID = id
	if err := s.Customers.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.Customers.Get(ctx, id)
}

// Delete removes the customer with their vehicles, bookings, job cards and
// invoices.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	return s.Customers.Delete(ctx, id)
}

func (s *CustomerService) AddVehicle(ctx context.Context, customerID string, in VehicleInput) (*domain.Vehicle, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var v domain.Vehicle
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		customers := s.Customers.WithTx(tx)
		if _, err := customers.Get(ctx, customerID); err != nil {
			return err
		}
		v = newVehicle(customerID, in)
		return customers.CreateVehicle(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CustomerService) Vehicles(ctx context.Context, customerID string) ([]domain.Vehicle, error) {
	if _, err := s.Customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.Customers.Vehicles(ctx, customerID)
}
