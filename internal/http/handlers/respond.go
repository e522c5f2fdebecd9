package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
)

// ErrorHandler turns service errors into {"error": msg}. Internal errors are
// logged and never shown to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	status := statusFor(domain.KindOf(err))
	if status == fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	return c.Status(status).JSON(fiber.Map{"error": domain.Message(err)})
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// bindJSON decodes the body strictly: unknown fields are rejected.
func bindJSON(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid request body: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return domain.Validation("invalid request body: trailing data")
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *fiber.Ctx, dst any) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	return bindJSON(c, dst)
}

func principal(c *fiber.Ctx) domain.Principal {
	p, _ := c.Locals(applog.PrincipalKey).(domain.Principal)
	return p
}

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}

// noteInput is the body shared by status changes, cancels and refunds.
type noteInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func (n noteInput) note() string {
	if n.Notes != "" {
		return n.Notes
	}
	return n.Reason
}
