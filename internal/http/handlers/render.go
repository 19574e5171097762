package handlers

import "github.com/gofiber/fiber/v2"

// render fills the fields every page layout reads before handing off to
// the view engine.
func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = "StallHub"
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		data["RequestID"] = rid
	}
	return c.Render(tmpl, data)
}

// NotFound is the fallthrough for unmatched routes. Browsers get the HTML
// page; API clients get JSON.
func NotFound(c *fiber.Ctx) error {
	c.Status(fiber.StatusNotFound)
	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
		return render(c, "notfound", fiber.Map{"Message": "Page not found"})
	}
	return c.JSON(fiber.Map{"error": "not found"})
}
