package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "detailhub/internal/log"
	"detailhub/internal/services"
)

type StaffHandler struct {
	Staff *services.StaffService
}

// GET /api/staff
func (h *StaffHandler) List(c *fiber.Ctx) error {
	out, err := h.Staff.List(c.UserContext(), c.Query("position"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /api/staff/:id
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	st, err := h.Staff.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// POST /api/staff
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var in services.CreateStaffInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	st, err := h.Staff.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "staff.create", map[string]any{"staff_id": st.ID, "position": st.Position})
	return created(c, st)
}

// PUT /api/staff/:id
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateStaffInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	st, err := h.Staff.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "staff.update", map[string]any{"staff_id": st.ID, "position": st.Position, "active": st.Active})
	return c.JSON(st)
}

// DELETE /api/staff/:id
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Staff.Delete(c.UserContext(), id, principal(c).ID); err != nil {
		return err
	}
	applog.Audit(c, "staff.delete", map[string]any{"staff_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
