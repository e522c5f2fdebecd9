package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/web"
)

var (
	staffDesk = []string{domain.RoleAdmin, domain.RoleManager, domain.RoleCustomerService}
	managers  = []string{domain.RoleAdmin, domain.RoleManager}
	workshop  = []string{domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician}
)

// Money and stock go over the wire as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// NewApp builds the fiber app with middleware and every route. pre runs
// before everything else (tracing, for one).
func NewApp(d *Deps, pre ...fiber.Handler) *fiber.App {
	bodyLimit := d.Config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 8
	}
	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit << 20,
	})

	for _, h := range pre {
		app.Use(h)
	}
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("started", time.Now())
		return c.Next()
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New())

	mountMedia(app, d.Config.MediaDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	Routes(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})
	return app
}

// Routes registers the /api surface with role gating.
func Routes(app *fiber.App, d *Deps) {
	api := app.Group("/api")

	api.Post("/auth/login", rateLimit("login", d.Config.LoginRateMax, 10*time.Minute), d.AuthHandler.Login)
	api.Post("/bookings/public", rateLimit("public-booking", d.Config.BookRateMax, 10*time.Minute), d.BookingHandler.CreatePublic)

	authed := api.Group("", RequireAuth(d.Auth))
	authed.Get("/auth/me", d.AuthHandler.Me)
	authed.Put("/auth/password", d.AuthHandler.ChangePassword)

	bk := d.BookingHandler
	authed.Get("/bookings", bk.List)
	authed.Post("/bookings", RequireRole(staffDesk...), bk.Create)
	authed.Get("/bookings/:id", bk.Get)
	authed.Put("/bookings/:id", RequireRole(staffDesk...), bk.Update)
	authed.Put("/bookings/:id/status", RequireRole(domain.Roles...), bk.UpdateStatus)
	authed.Put("/bookings/:id/cancel", RequireRole(staffDesk...), bk.Cancel)

	jc := d.JobCardHandler
	authed.Get("/job-cards", jc.List)
	authed.Post("/job-cards", RequireRole(managers...), jc.Create)
	authed.Get("/job-cards/workload", RequireRole(managers...), jc.Workload)
	authed.Get("/job-cards/:id", jc.Get)
	authed.Put("/job-cards/:id/status", RequireRole(workshop...), jc.UpdateStatus)
	authed.Put("/job-cards/:id/assign", RequireRole(managers...), jc.Assign)
	authed.Post("/job-cards/:id/photos", RequireRole(workshop...), jc.UploadPhoto)
	authed.Post("/job-cards/:id/consume", RequireRole(workshop...), jc.Consume)

	inv := d.InventoryHandler
	authed.Get("/inventory", inv.List)
	authed.Post("/inventory", RequireRole(managers...), inv.Create)
	authed.Get("/inventory/alerts/low-stock", inv.LowStock)
	authed.Get("/inventory/stats/overview", inv.Stats)
	authed.Get("/inventory/export", RequireRole(managers...), inv.Export)
	authed.Get("/inventory/:id", inv.Get)
	authed.Put("/inventory/:id", RequireRole(managers...), inv.Update)
	authed.Post("/inventory/:id/add-stock", RequireRole(managers...), inv.AddStock)
	authed.Post("/inventory/:id/remove-stock", RequireRole(workshop...), inv.RemoveStock)
	authed.Get("/inventory/:id/transactions", inv.Transactions)

	bl := d.BillingHandler
	billing := authed.Group("/billing", RequireRole(staffDesk...))
	billing.Get("/", bl.List)
	billing.Post("/", bl.Generate)
	billing.Post("/generate-invoice", bl.Generate)
	billing.Get("/outstanding/list", bl.Outstanding)
	billing.Get("/stats/overview", bl.Stats)
	billing.Get("/export", bl.Export)
	billing.Get("/:id", bl.Get)
	billing.Get("/:id/print", bl.Print)
	billing.Put("/:id/payment", bl.Payment)
	billing.Put("/:id/refund", bl.Refund)

	cu := d.CustomerHandler
	customers := authed.Group("/customers", RequireRole(staffDesk...))
	customers.Get("/", cu.List)
	customers.Post("/", cu.Create)
	customers.Get("/:id", cu.Get)
	customers.Put("/:id", cu.Update)
	customers.Delete("/:id", RequireRole(domain.RoleAdmin), cu.Delete)
	customers.Get("/:id/vehicles", cu.Vehicles)
	customers.Post("/:id/vehicles", cu.AddVehicle)

	cat := d.CatalogHandler
	authed.Get("/services", cat.Services)
	authed.Post("/services", RequireRole(managers...), cat.CreateService)
	authed.Get("/services/:id", cat.Service)
	authed.Put("/services/:id", RequireRole(managers...), cat.UpdateService)
	authed.Get("/packages", cat.Packages)
	authed.Post("/packages", RequireRole(managers...), cat.CreatePackage)
	authed.Get("/packages/:id", cat.Package)

	st := d.StaffHandler
	staff := authed.Group("/staff", RequireRole(managers...))
	staff.Get("/", st.List)
	staff.Get("/:id", st.Get)
	staff.Post("/", RequireRole(domain.RoleAdmin), st.Create)
	staff.Put("/:id", RequireRole(domain.RoleAdmin), st.Update)
	staff.Delete("/:id", RequireRole(domain.RoleAdmin), st.Delete)
}

func rateLimit(name string, limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		limit = 5
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, please try again later"})
		},
	})
}

// mountMedia serves uploaded photos, refusing anything that could walk out
// of dir.
func mountMedia(app *fiber.App, dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	})
}
