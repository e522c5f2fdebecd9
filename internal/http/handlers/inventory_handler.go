package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/reports"
	"detailhub/internal/services"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/inventory
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	out, err := h.Inv.List(c.UserContext(), c.Query("category"), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/inventory
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in services.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	it, err := h.Inv.CreateItem(c.UserContext(), in, principal(c).ID)
	if err != nil {
		return err
	}
	applog.Audit(c, "inventory.create", map[string]any{"item_id": it.ID, "stock": it.CurrentStock.String()})
	return created(c, it)
}

// GET /api/inventory/:id
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	it, err := h.Inv.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(it)
}

// PUT /api/inventory/:id
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	var in services.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	it, err := h.Inv.UpdateItem(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "inventory.update", map[string]any{"item_id": it.ID})
	return c.JSON(it)
}

// POST /api/inventory/:id/add-stock
func (h *InventoryHandler) AddStock(c *fiber.Ctx) error {
	return h.move(c, "inventory.stock.in", h.Inv.AddStock)
}

// POST /api/inventory/:id/remove-stock
func (h *InventoryHandler) RemoveStock(c *fiber.Ctx) error {
	return h.move(c, "inventory.stock.out", h.Inv.RemoveStock)
}

func (h *InventoryHandler) move(c *fiber.Ctx, action string, fn stockFunc) error {
	var in services.StockInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	it, err := fn(c.UserContext(), c.Params("id"), in, principal(c).ID)
	if err != nil {
		applog.Info(c, action+".reject", map[string]any{"item_id": c.Params("id"), "quantity": in.Quantity.String()})
		return err
	}
	applog.Audit(c, action, map[string]any{"item_id": it.ID, "quantity": in.Quantity.String(), "stock": it.CurrentStock.String()})
	return c.JSON(it)
}

// GET /api/inventory/:id/transactions
func (h *InventoryHandler) Transactions(c *fiber.Ctx) error {
	out, err := h.Inv.Transactions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /api/inventory/alerts/low-stock
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.Inv.ListLowStock(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /api/inventory/stats/overview
func (h *InventoryHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Inv.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// GET /api/inventory/export
func (h *InventoryHandler) Export(c *fiber.Ctx) error {
	items, err := h.Inv.List(c.UserContext(), c.Query("category"), "")
	if err != nil {
		return err
	}
	buf, err := reports.InventoryWorkbook(items)
	if err != nil {
		return err
	}
	applog.Audit(c, "inventory.export", map[string]any{"rows": len(items)})
	return sendXLSX(c, fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102")), buf.Bytes())
}

func sendXLSX(c *fiber.Ctx, name string, body []byte) error {
	c.Set(fiber.HeaderContentType, xlsxType)
	c.Attachment(name)
	return c.Send(body)
}

type stockFunc func(ctx context.Context, itemID string, in services.StockInput, actorID string) (*domain.InventoryItem, error)
