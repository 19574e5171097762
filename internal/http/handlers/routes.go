package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Routes registers the whole HTTP surface on app.
func Routes(app *fiber.App, d *Deps) {
	seller := RequireSeller(d.Auth)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	cats := app.Group("/categories/:vendorId")
	cats.Get("/", d.CategoryHandler.List)
	cats.Post("/add", seller, d.CategoryHandler.Add)
	cats.Put("/update/:categoryId", seller, d.CategoryHandler.Update)
	cats.Delete("/delete/:categoryId", seller, d.CategoryHandler.Delete)
	cats.Post("/items/:categoryId/add", seller, d.ItemHandler.Add)
	cats.Get("/:categoryId", d.CategoryHandler.Get)
	cats.Get("/:categoryId/items", d.ItemHandler.List)

	sell := app.Group("/seller/:vendorId")
	sell.Get("/items/:categoryId/:foodItemId", d.ItemHandler.Get)
	sell.Put("/update/:categoryId/:foodItemId", seller, d.ItemHandler.Update)
	sell.Delete("/item/:categoryId/:foodItemId", seller, d.ItemHandler.Delete)
	sell.Put("/status", seller, d.SellerHandler.SetStatus)

	app.Post("/upload/:vendorId/sign", seller, d.SellerHandler.SignUpload)

	// search scans every live vendor; keep it cheap for anonymous callers
	app.Get("/search", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many searches, slow down"})
		},
	}), d.SearchHandler.Query)

	app.Get("/browse", d.BrowseHandler.List)
	app.Get("/ws/browse", d.BrowseHandler.Upgrade, d.BrowseHandler.Live())
	app.Get("/menu", d.BrowseHandler.Menu)

	app.Use(NotFound)
}
