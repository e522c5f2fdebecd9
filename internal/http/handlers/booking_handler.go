package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "detailhub/internal/log"
	"detailhub/internal/repos"
	"detailhub/internal/services"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

// GET /api/bookings
func (h *BookingHandler) List(c *fiber.Ctx) error {
	out, err := h.Bookings.List(c.UserContext(), repos.BookingFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/bookings
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var in services.CreateBookingInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Create(c.UserContext(), in, principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.create", map[string]any{"booking_id": b.ID, "total": b.TotalAmount.String()})
	return created(c, b)
}

// POST /api/bookings/public
func (h *BookingHandler) CreatePublic(c *fiber.Ctx) error {
	var in services.PublicBookingInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.CreatePublic(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.public.create", map[string]any{"booking_id": b.ID})
	return created(c, b)
}

// GET /api/bookings/:id
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	b, err := h.Bookings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// PUT /api/bookings/:id
func (h *BookingHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateBookingInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.update", map[string]any{"booking_id": b.ID})
	return c.JSON(b)
}

// PUT /api/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	var in noteInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.TransitionStatus(c.UserContext(), c.Params("id"), in.Status, in.note(), principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.status", map[string]any{"booking_id": b.ID, "status": b.Status})
	return c.JSON(b)
}

// PUT /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	var in noteInput
	if err := bindOptionalJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Cancel(c.UserContext(), c.Params("id"), in.note(), principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.cancel", map[string]any{"booking_id": b.ID})
	return c.JSON(b)
}
