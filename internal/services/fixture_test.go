package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/config"
	"detailhub/internal/domain"
	"detailhub/internal/events"
	"detailhub/internal/repos"
	"detailhub/internal/services"
)

type fixture struct {
	db        *sqlx.DB
	bus       *events.Bus
	bookings  *services.BookingService
	jobs      *services.JobCardService
	inventory *services.InventoryService
	billing   *services.BillingService
	customers *services.CustomerService
	catalog   *services.CatalogService
	staff     *services.StaffService
	phones    int
}

func newFixture(t *testing.T, pol config.Linkage) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	bus := events.New()
	inv := services.NewInventoryService(db)
	f := &fixture{
		db:        db,
		bus:       bus,
		bookings:  services.NewBookingService(db, bus),
		jobs:      services.NewJobCardService(db, inv, t.TempDir(), bus),
		inventory: inv,
		billing:   services.NewBillingService(db, decimal.RequireFromString("0.18"), bus),
		customers: services.NewCustomerService(db),
		catalog:   services.NewCatalogService(db),
		staff:     services.NewStaffService(db),
	}
	services.RegisterLinkage(bus, pol, f.bookings, f.jobs, f.billing)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) service(t *testing.T, name, price string) *domain.Service {
	t.Helper()
	s, err := f.catalog.CreateService(context.Background(), services.ServiceInput{
		Name: name, Category: "exterior", BasePrice: dec(price), Duration: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) customer(t *testing.T) *domain.Customer {
	t.Helper()
	f.phones++
	c, err := f.customers.Create(context.Background(), services.CustomerInput{
		Name: "Asha Rao", Phone: fmt.Sprintf("+91 98450 %05d", f.phones),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// booking creates a confirmed booking for a fresh customer with the given
// services.
func (f *fixture) booking(t *testing.T, items ...services.LineItemInput) *domain.Booking {
	t.Helper()
	c := f.customer(t)
	b, err := f.bookings.Create(context.Background(), services.CreateBookingInput{
		CustomerID: c.ID,
		Vehicle:    &services.VehicleInput{Brand: "Honda", Model: "City", Registration: fmt.Sprintf("KA01AB%04d", f.phones)},
		Date:       "2026-03-14",
		Time:       "10:30",
		Services:   items,
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// standardBooking is 500 x1 + 300 x2 = 1100.
func (f *fixture) standardBooking(t *testing.T) *domain.Booking {
	t.Helper()
	wash := f.service(t, "Foam Wash", "500")
	wax := f.service(t, "Wax Polish", "300")
	return f.booking(t,
		services.LineItemInput{ServiceID: wash.ID, Quantity: qty(1)},
		services.LineItemInput{ServiceID: wax.ID, Quantity: qty(2)},
	)
}

func (f *fixture) technician(t *testing.T, email string) *domain.Staff {
	t.Helper()
	st, err := f.staff.Create(context.Background(), services.CreateStaffInput{
		Name: "Ravi Kumar", Email: email, Position: domain.RoleTechnician, Password: "Tech!2026x",
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func wantKind(t *testing.T, err error, k domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s error, got nil", k)
	}
	if got := domain.KindOf(err); got != k {
		t.Fatalf("want %s error, got %s: %v", k, got, err)
	}
}

func qty(n int) *int { return &n }
