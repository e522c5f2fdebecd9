package handlers

import (
	"github.com/gofiber/fiber/v2"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/services"
)

type JobCardHandler struct {
	JobCards *services.JobCardService
}

// GET /api/job-cards
func (h *JobCardHandler) List(c *fiber.Ctx) error {
	out, err := h.JobCards.List(c.UserContext(), c.Query("status"), c.Query("technician_id"), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/job-cards
func (h *JobCardHandler) Create(c *fiber.Ctx) error {
	var in services.CreateJobCardInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	j, err := h.JobCards.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "jobcard.create", map[string]any{"job_card_id": j.ID, "booking_id": j.BookingID})
	return created(c, j)
}

// GET /api/job-cards/:id
func (h *JobCardHandler) Get(c *fiber.Ctx) error {
	j, err := h.JobCards.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(j)
}

// GET /api/job-cards/workload
func (h *JobCardHandler) Workload(c *fiber.Ctx) error {
	out, err := h.JobCards.Workload(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// PUT /api/job-cards/:id/status
func (h *JobCardHandler) UpdateStatus(c *fiber.Ctx) error {
	var in noteInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	j, err := h.JobCards.UpdateStatus(c.UserContext(), c.Params("id"), in.Status, in.note(), principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "jobcard.status", map[string]any{"job_card_id": j.ID, "status": j.Status})
	return c.JSON(j)
}

type assignInput struct {
	TechnicianID string `json:"technician_id"`
}

// PUT /api/job-cards/:id/assign
func (h *JobCardHandler) Assign(c *fiber.Ctx) error {
	var in assignInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	j, err := h.JobCards.AssignTechnician(c.UserContext(), c.Params("id"), in.TechnicianID)
	if err != nil {
		return err
	}
	applog.Audit(c, "jobcard.assign", map[string]any{"job_card_id": j.ID, "technician_id": in.TechnicianID})
	return c.JSON(j)
}

// POST /api/job-cards/:id/photos (multipart: photo, type)
func (h *JobCardHandler) UploadPhoto(c *fiber.Ctx) error {
	fh, err := c.FormFile("photo")
	if err != nil {
		return domain.Validation("photo file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Validation("photo file could not be read")
	}
	defer f.Close()

	p, err := h.JobCards.AttachPhoto(c.UserContext(), c.Params("id"), c.FormValue("type"), f)
	if err != nil {
		return err
	}
	applog.Audit(c, "jobcard.photo", map[string]any{"job_card_id": p.JobCardID, "photo_id": p.ID, "type": p.Type, "bytes": fh.Size})
	return created(c, p)
}

// POST /api/job-cards/:id/consume
func (h *JobCardHandler) Consume(c *fiber.Ctx) error {
	var in services.ConsumeInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	it, err := h.JobCards.ConsumeStock(c.UserContext(), c.Params("id"), in, principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "jobcard.consume", map[string]any{"job_card_id": c.Params("id"), "item_id": it.ID, "quantity": in.Quantity.String()})
	return c.JSON(it)
}
