package handlers

import (
	"errors"

	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/search"
	"stallhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const degradedMessage = "live availability is temporarily unavailable, showing nothing for now"

type SearchHandler struct {
	Search *search.Resolver
}

// GET /search?q=
func (h *SearchHandler) Query(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return fail(c, "search", domain.Invalid("q", "invalid search query"))
	}
	ids, err := h.Search.Search(c.UserContext(), q)
	var up *domain.UpstreamUnavailable
	if errors.As(err, &up) {
		applog.Warn(c, "search.degraded", err, nil)
		return c.JSON(fiber.Map{"results": []string{}, "message": degradedMessage})
	}
	if err != nil {
		return fail(c, "search", err)
	}
	applog.Info(c, "search", map[string]any{"q": q, "results": len(ids)})
	return c.JSON(fiber.Map{"results": ids})
}
