package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "detailhub/internal/log"
	"detailhub/internal/services"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /api/services?active=true&category=
func (h *CatalogHandler) Services(c *fiber.Ctx) error {
	out, err := h.Catalog.Services(c.UserContext(), c.QueryBool("active", false), c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// POST /api/services
func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var in services.ServiceInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	s, err := h.Catalog.CreateService(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "catalog.service.create", map[string]any{"service_id": s.ID, "price": s.BasePrice.String()})
	return created(c, s)
}

// GET /api/services/:id
func (h *CatalogHandler) Service(c *fiber.Ctx) error {
	s, err := h.Catalog.Service(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(s)
}

// PUT /api/services/:id
func (h *CatalogHandler) UpdateService(c *fiber.Ctx) error {
	var in services.ServiceInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	s, err := h.Catalog.UpdateService(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "catalog.service.update", map[string]any{"service_id": s.ID, "active": s.Active})
	return c.JSON(s)
}

// GET /api/packages
func (h *CatalogHandler) Packages(c *fiber.Ctx) error {
	out, err := h.Catalog.Packages(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /api/packages/:id
func (h *CatalogHandler) Package(c *fiber.Ctx) error {
	p, err := h.Catalog.Package(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// POST /api/packages
func (h *CatalogHandler) CreatePackage(c *fiber.Ctx) error {
	var in services.PackageInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreatePackage(c.UserContext(), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "catalog.package.create", map[string]any{"package_id": p.ID})
	return created(c, p)
}
