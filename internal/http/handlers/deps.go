package handlers

import (
	"github.com/jmoiron/sqlx"

	"detailhub/internal/config"
	"detailhub/internal/events"
	"detailhub/internal/repos"
	"detailhub/internal/services"
)

type Deps struct {
	Config    config.Config
	Auth      *services.AuthService
	Bookings  *services.BookingService
	JobCards  *services.JobCardService
	Inventory *services.InventoryService
	Billing   *services.BillingService
	Customers *services.CustomerService
	Catalog   *services.CatalogService
	Staff     *services.StaffService

	AuthHandler      *AuthHandler
	BookingHandler   *BookingHandler
	JobCardHandler   *JobCardHandler
	InventoryHandler *InventoryHandler
	BillingHandler   *BillingHandler
	CustomerHandler  *CustomerHandler
	CatalogHandler   *CatalogHandler
	StaffHandler     *StaffHandler
}

// NewDeps builds every service over db and subscribes the configured linkage
// reactions on bus.
func NewDeps(db *sqlx.DB, cfg config.Config, bus *events.Bus) *Deps {
	if bus == nil {
		bus = events.New()
	}
	authSvc := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret, cfg.JWTTTL)
	invSvc := services.NewInventoryService(db)
	bookingSvc := services.NewBookingService(db, bus)
	jobSvc := services.NewJobCardService(db, invSvc, cfg.MediaDir, bus)
	billingSvc := services.NewBillingService(db, cfg.TaxRate, bus)
	customerSvc := services.NewCustomerService(db)
	catalogSvc := services.NewCatalogService(db)
	staffSvc := services.NewStaffService(db)

	services.RegisterLinkage(bus, cfg.Linkage, bookingSvc, jobSvc, billingSvc)

	return &Deps{
		Config:    cfg,
		Auth:      authSvc,
		Bookings:  bookingSvc,
		JobCards:  jobSvc,
		Inventory: invSvc,
		Billing:   billingSvc,
		Customers: customerSvc,
		Catalog:   catalogSvc,
		Staff:     staffSvc,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		BookingHandler:   &BookingHandler{Bookings: bookingSvc},
		JobCardHandler:   &JobCardHandler{JobCards: jobSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		BillingHandler:   &BillingHandler{Billing: billingSvc, Studio: cfg.StudioName},
		CustomerHandler:  &CustomerHandler{Customers: customerSvc},
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		StaffHandler:     &StaffHandler{Staff: staffSvc},
	}
}
