package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
	"detailhub/internal/events"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type LineItemInput struct {
	ServiceID string `json:"service_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,lte=100"`
}

type CreateBookingInput struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	VehicleID  string          `json:"vehicle_id"`
	Vehicle    *VehicleInput   `json:"vehicle"`
	Date       string          `json:"booking_date" validate:"required,date"`
	Time       string          `json:"booking_time" validate:"required,hhmm"`
	Services   []LineItemInput `json:"services" validate:"dive"`
	Notes      string          `json:"notes" validate:"max=2000"`
}

type UpdateBookingInput struct {
	VehicleID string          `json:"vehicle_id"`
	Date      string          `json:"booking_date" validate:"required,date"`
	Time      string          `json:"booking_time" validate:"required,hhmm"`
	Services  []LineItemInput `json:"services" validate:"dive"`
	Notes     string          `json:"notes" validate:"max=2000"`
}

// PublicBookingInput is the unauthenticated portal intake.
type PublicBookingInput struct {
	Name     string          `json:"name" validate:"required,max=191"`
	Phone    string          `json:"phone" validate:"required,phone"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Vehicle  VehicleInput    `json:"vehicle"`
	Date     string          `json:"booking_date" validate:"required,date"`
	Time     string          `json:"booking_time" validate:"required,hhmm"`
	Services []LineItemInput `json:"services" validate:"dive"`
	Notes    string          `json:"notes" validate:"max=2000"`
}

type BookingService struct {
	DB        *sqlx.DB
	Bookings  *repos.BookingRepo
	Customers *repos.CustomerRepo
	Catalog   *repos.CatalogRepo
	Events    *events.Bus
}

func NewBookingService(db *sqlx.DB, bus *events.Bus) *BookingService {
	return &BookingService{
		DB:        db,
		Bookings:  repos.NewBookingRepo(db),
		Customers: repos.NewCustomerRepo(db),
		Catalog:   repos.NewCatalogRepo(db),
		Events:    bus,
	}
}

// Create books services for an existing customer. Staff-created bookings
// start confirmed.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput, actorID string) (*domain.Booking, error) {
	if len(in.Services) == 0 {
		return nil, domain.Validation("select at least one service")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := domain.Now()
	b := domain.Booking{
		ID: uuid.NewString(), CustomerID: in.CustomerID, Date: in.Date, Time: in.Time,
		Status: domain.BookingConfirmed, Notes: in.Notes, Source: domain.SourceAdmin,
		CreatedAt: now, UpdatedAt: now,
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		customers := s.Customers.WithTx(tx)
		if _, err := customers.Get(ctx, in.CustomerID); err != nil {
			return err
		}
		vehicleID, err := resolveVehicle(ctx, customers, in.CustomerID, in.VehicleID, in.Vehicle)
		if err != nil {
			return err
		}
		b.VehicleID = vehicleID

		items, err := priceItems(ctx, s.Catalog.WithTx(tx), in.Services)
		if err != nil {
			return err
		}
		b.Items = items
		b.TotalAmount = domain.LineTotal(items)
		return s.Bookings.WithTx(tx).Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.Event{Name: events.BookingConfirmed, BookingID: b.ID, To: b.Status, ActorID: actorID})
	return s.Get(ctx, b.ID)
}

// CreatePublic records a portal request as pending, registering the
// customer by phone and the vehicle by registration number when new.
func (s *BookingService) CreatePublic(ctx context.Context, in PublicBookingInput) (*domain.Booking, error) {
	if len(in.Services) == 0 {
		return nil, domain.Validation("select at least one service")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(in.Phone)
	in.Vehicle.Registration = strings.ToUpper(strings.TrimSpace(in.Vehicle.Registration))

	now := domain.Now()
	b := domain.Booking{
		ID: uuid.NewString(), Date: in.Date, Time: in.Time, Status: domain.BookingPending,
		Notes: in.Notes, Source: domain.SourcePortal, CreatedAt: now, UpdatedAt: now,
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		items, err := priceItems(ctx, s.Catalog.WithTx(tx), in.Services)
		if err != nil {
			return err
		}

		customers := s.Customers.WithTx(tx)
		cust, err := customers.ByPhone(ctx, phone)
		switch {
		case domain.IsNotFound(err):
			c := newCustomer(CustomerInput{Name: in.Name, Phone: phone, Email: in.Email})
			if err := customers.Create(ctx, c); err != nil {
				return err
			}
			cust = &c
		case err != nil:
			return err
		}

		veh, err := customers.VehicleByRegistration(ctx, cust.ID, in.Vehicle.Registration)
		switch {
		case domain.IsNotFound(err):
			v := newVehicle(cust.ID, in.Vehicle)
			if err := customers.CreateVehicle(ctx, v); err != nil {
				return err
			}
			veh = &v
		case err != nil:
			return err
		}

		b.CustomerID, b.VehicleID = cust.ID, veh.ID
		b.Items = items
		b.TotalAmount = domain.LineTotal(items)
		return s.Bookings.WithTx(tx).Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, b.ID)
}

// Update replaces the line items and recomputes the total from the catalog.
func (s *BookingService) Update(ctx context.Context, id string, in UpdateBookingInput) (*domain.Booking, error) {
	if len(in.Services) == 0 {
		return nil, domain.Validation("select at least one service")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		bookings := s.Bookings.WithTx(tx)
		b, err := bookings.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if domain.BookingTerminal(b.Status) {
			return domain.Validation("booking is %s and can no longer be edited", b.Status)
		}
		if in.VehicleID != "" && in.VehicleID != b.VehicleID {
			if _, err := resolveVehicle(ctx, s.Customers.WithTx(tx), b.CustomerID, in.VehicleID, nil); err != nil {
				return err
			}
			b.VehicleID = in.VehicleID
		}
		items, err := priceItems(ctx, s.Catalog.WithTx(tx), in.Services)
		if err != nil {
			return err
		}
		b.Date, b.Time, b.Notes = in.Date, in.Time, in.Notes
		b.Items = items
		b.TotalAmount = domain.LineTotal(items)
		return bookings.ReplaceItems(ctx, *b)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// TransitionStatus moves a booking along its lifecycle. Re-applying the
// current status is a no-op and publishes nothing.
func (s *BookingService) TransitionStatus(ctx context.Context, id, status, note, actorID string) (*domain.Booking, error) {
	if !domain.ValidBookingStatus(status) {
		return nil, domain.Validation("unknown booking status %q", status)
	}
	var from string
	changed := false
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		bookings := s.Bookings.WithTx(tx)
		b, err := bookings.Get(ctx, id, true)
		if err != nil {
			return err
		}
		from = b.Status
		if b.Status == status {
			return nil
		}
		if !domain.CanTransitionBooking(b.Status, status) {
			return domain.Validation("cannot move booking from %s to %s", b.Status, status)
		}
		if err := bookings.SetStatus(ctx, id, status, appendNote(b.Notes, note)); err != nil {
			return err
		}
		changed = true
		if status == domain.BookingCompleted {
			return s.Customers.WithTx(tx).RefreshAggregates(ctx, b.CustomerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		ev := events.Event{BookingID: id, From: from, To: status, ActorID: actorID}
		ev.Name = events.BookingStatusChanged
		s.Events.Publish(ctx, ev)
		switch status {
		case domain.BookingConfirmed:
			ev.Name = events.BookingConfirmed
		case domain.BookingCompleted:
			ev.Name = events.BookingCompleted
		case domain.BookingCancelled:
			ev.Name = events.BookingCancelled
		default:
			ev.Name = ""
		}
		if ev.Name != "" {
			s.Events.Publish(ctx, ev)
		}
	}
	return s.Get(ctx, id)
}

func (s *BookingService) Cancel(ctx context.Context, id, note, actorID string) (*domain.Booking, error) {
	return s.TransitionStatus(ctx, id, domain.BookingCancelled, note, actorID)
}

func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.Bookings.Get(ctx, id, false)
}

func (s *BookingService) List(ctx context.Context, f repos.BookingFilter) ([]domain.Booking, error) {
	if f.Status != "" && !domain.ValidBookingStatus(f.Status) {
		return nil, domain.Validation("unknown booking status %q", f.Status)
	}
	f.Limit, f.Offset = page(f.Limit, f.Offset)
	return s.Bookings.List(ctx, f)
}

// priceItems merges duplicate services, checks every service is bookable and
// snapshots the current catalog price into each line.
func priceItems(ctx context.Context, catalog *repos.CatalogRepo, in []LineItemInput) ([]domain.LineItem, error) {
	if len(in) == 0 {
		return nil, domain.Validation("select at least one service")
	}
	var order []string
	qty := map[string]int{}
	for _, li := range in {
		q := 1
		if li.Quantity != nil {
			if *li.Quantity < 1 {
				return nil, domain.Validation("quantity must be at least 1")
			}
			q = *li.Quantity
		}
		if _, seen := qty[li.ServiceID]; !seen {
			order = append(order, li.ServiceID)
		}
		qty[li.ServiceID] += q
	}

	catalogued, err := catalog.ServicesByID(ctx, order)
	if err != nil {
		return nil, err
	}
	items := make([]domain.LineItem, 0, len(order))
	for i, id := range order {
		svc, ok := catalogued[id]
		if !ok || !svc.Active {
			return nil, domain.Validation("invalid or inactive services")
		}
		items = append(items, domain.LineItem{
			ServiceID: id, ServiceName: svc.Name, Quantity: qty[id], Price: svc.BasePrice, Ordinal: i,
		})
	}
	return items, nil
}

func resolveVehicle(ctx context.Context, customers *repos.CustomerRepo, customerID, vehicleID string, inline *VehicleInput) (string, error) {
	if vehicleID != "" {
		v, err := customers.Vehicle(ctx, vehicleID)
		if err != nil {
			return "", err
		}
		if v.CustomerID != customerID {
			return "", domain.Validation("vehicle does not belong to this customer")
		}
		return v.ID, nil
	}
	if inline == nil {
		return "", domain.Validation("vehicle_id or vehicle is required")
	}
	if err := validate.Struct(*inline); err != nil {
		return "", err
	}
	v := newVehicle(customerID, *inline)
	if err := customers.CreateVehicle(ctx, v); err != nil {
		return "", err
	}
	return v.ID, nil
}
