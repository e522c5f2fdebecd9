package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/reports"
	"detailhub/internal/services"
)

type BillingHandler struct {
	Billing *services.BillingService
	Studio  string
}

// GET /api/billing
func (h *BillingHandler) List(c *fiber.Ctx) error {
	out, err := h.Billing.List(c.UserContext(), c.Query("payment_status"), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/billing/generate-invoice (also POST /api/billing)
func (h *BillingHandler) Generate(c *fiber.Ctx) error {
	var in services.GenerateInvoiceInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	inv, err := h.Billing.GenerateInvoice(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "billing.invoice.create", map[string]any{"invoice": inv.InvoiceNumber, "booking_id": inv.BookingID, "total": inv.TotalAmount.String()})
	return created(c, inv)
}

// GET /api/billing/:id
func (h *BillingHandler) Get(c *fiber.Ctx) error {
	inv, err := h.Billing.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// PUT /api/billing/:id/payment
func (h *BillingHandler) Payment(c *fiber.Ctx) error {
	var in services.PaymentInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	inv, err := h.Billing.RecordPayment(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "billing.payment", map[string]any{"invoice": inv.InvoiceNumber, "paid": inv.PaidAmount.String(), "status": inv.PaymentStatus})
	return c.JSON(inv)
}

// PUT /api/billing/:id/refund
func (h *BillingHandler) Refund(c *fiber.Ctx) error {
	var in noteInput
	if err := bindOptionalJSON(c, &in); err != nil {
		return err
	}
	inv, err := h.Billing.Refund(c.UserContext(), c.Params("id"), in.note())
	if err != nil {
		return err
	}
	applog.Audit(c, "billing.refund", map[string]any{"invoice": inv.InvoiceNumber})
	return c.JSON(inv)
}

// GET /api/billing/outstanding/list
func (h *BillingHandler) Outstanding(c *fiber.Ctx) error {
	out, err := h.Billing.ListOutstanding(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /api/billing/stats/overview
func (h *BillingHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Billing.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// GET /api/billing/:id/print
func (h *BillingHandler) Print(c *fiber.Ctx) error {
	v, err := h.Billing.PrintView(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Render("invoice", fiber.Map{
		"Studio":   h.Studio,
		"Invoice":  v.Invoice,
		"Booking":  v.Booking,
		"Customer": v.Customer,
	})
}

// GET /api/billing/export
func (h *BillingHandler) Export(c *fiber.Ctx) error {
	var all []domain.Invoice
	const batch = 200
	for offset := 0; ; offset += batch {
		page, err := h.Billing.List(c.UserContext(), c.Query("payment_status"), batch, offset)
		if err != nil {
			return err
		}
		all = append(all, page...)
		if len(page) < batch {
			break
		}
	}
	buf, err := reports.InvoicesWorkbook(all)
	if err != nil {
		return err
	}
	applog.Audit(c, "billing.export", map[string]any{"rows": len(all)})
	return sendXLSX(c, fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("20060102")), buf.Bytes())
}
