package handlers

import (
	"errors"

	"stallhub/internal/domain"
	applog "stallhub/internal/log"

	"github.com/gofiber/fiber/v2"
)

const genericError = "Something went wrong. Please try again."

// errorStatus maps the domain error types to HTTP status codes. Zero means
// the error is not a domain error.
func errorStatus(err error) int {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		pf *domain.PartialFailureError
		up *domain.UpstreamUnavailable
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &nf):
		return fiber.StatusNotFound
	case errors.As(err, &pf):
		return fiber.StatusMultiStatus
	case errors.As(err, &up):
		return fiber.StatusServiceUnavailable
	}
	return 0
}

// fail writes a domain error as JSON. Anything else goes to the app
// ErrorHandler, which answers with a generic message.
func fail(c *fiber.Ctx, action string, err error) error {
	status := errorStatus(err)
	if status == 0 {
		return err
	}
	body := fiber.Map{"error": err.Error()}
	var (
		ve *domain.ValidationError
		pf *domain.PartialFailureError
	)
	switch {
	case errors.As(err, &ve):
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field})
	case errors.As(err, &pf):
		deleted := pf.Succeeded
		if deleted == nil {
			deleted = []string{}
		}
		body["failed"] = pf.FailedIDs()
		body["deleted"] = deleted
		applog.Warn(c, action+".partial", err, nil)
	case status == fiber.StatusServiceUnavailable:
		body["error"] = "a backing store is temporarily unavailable, retry shortly"
		applog.Error(c, action+".upstream", err, nil)
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the app-level handler for errors no route translated.
// Client errors raised by fiber keep their status; everything else is a
// generic 500 that never carries internal detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}
