package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/services"
)

// RequireAuth resolves the bearer token into a principal stored in Locals.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			applog.Security(c, "auth.token.missing", nil)
			return domain.Unauthorized("missing bearer token")
		}
		p, err := auth.Principal(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			applog.Security(c, "auth.token.reject", map[string]any{"reason": domain.Message(err)})
			return err
		}
		c.Locals(applog.PrincipalKey, p)
		return c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !principal(c).HasRole(roles...) {
			applog.Security(c, "access.denied", map[string]any{"required": roles})
			return domain.Forbidden("insufficient permissions")
		}
		return c.Next()
	}
}
