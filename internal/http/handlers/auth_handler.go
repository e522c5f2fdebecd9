package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "detailhub/internal/log"
	"detailhub/internal/services"
	"detailhub/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return services.ErrBadCreds
	}
	token, u, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return err
	}
	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.JSON(fiber.Map{"token": token, "user": u})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Auth.Users.ByID(c.UserContext(), principal(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

type passwordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in passwordInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	p := principal(c)
	if err := h.Auth.ChangePassword(c.UserContext(), p.ID, in.CurrentPassword, in.NewPassword); err != nil {
		applog.Security(c, "auth.password.fail", nil)
		return err
	}
	applog.Audit(c, "auth.password.changed", map[string]any{"user_id": p.ID})
	return c.SendStatus(fiber.StatusNoContent)
}
