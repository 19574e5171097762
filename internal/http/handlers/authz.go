package handlers

import (
	"errors"
	"strings"

	applog "stallhub/internal/log"
	"stallhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireSeller lets the request through only when the bearer token belongs
// to the :vendorId in the path.
func RequireSeller(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vendorID := c.Params("vendorId")
		h := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			applog.Security(c, "access.denied.seller", map[string]any{"vendor": vendorID, "reason": "missing_token"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		err := auth.Verify(c.UserContext(), vendorID, strings.TrimSpace(token))
		if errors.Is(err, services.ErrBadToken) {
			applog.Security(c, "access.denied.seller", map[string]any{"vendor": vendorID, "reason": "bad_token"})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "token does not belong to this vendor"})
		}
		if err != nil {
			return err
		}
		c.Locals("vendor", vendorID)
		return c.Next()
	}
}
