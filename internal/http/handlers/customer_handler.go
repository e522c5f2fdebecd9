package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "detailhub/internal/log"
	"detailhub/internal/services"
)

type CustomerHandler struct {
	Customers *services.CustomerService
}

// GET /api/customers
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	out, err := h.Customers.List(c.UserContext(), c.Query("search"), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in services.CustomerInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cu, err := h.Customers.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cu.ID})
	return created(c, cu)
}

// GET /api/customers/:id
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	cu, err := h.Customers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(cu)
}

// PUT /api/customers/:id
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var in services.CustomerInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	cu, err := h.Customers.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "customer.update", map[string]any{"customer_id": cu.ID})
	return c.JSON(cu)
}

// DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Customers.Delete(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "customer.delete", map[string]any{"customer_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/customers/:id/vehicles
func (h *CustomerHandler) Vehicles(c *fiber.Ctx) error {
	out, err := h.Customers.Vehicles(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/customers/:id/vehicles
func (h *CustomerHandler) AddVehicle(c *fiber.Ctx) error {
	var in services.VehicleInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	v, err := h.Customers.AddVehicle(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "customer.vehicle.create", map[string]any{"customer_id": v.CustomerID, "vehicle_id": v.ID})
	return created(c, v)
}
