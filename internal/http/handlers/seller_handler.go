package handlers

import (
	"errors"
	"time"

	"stallhub/internal/blob"
	applog "stallhub/internal/log"
	"stallhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

type SellerHandler struct {
	Catalog *services.CatalogService
	Blobs   blob.Store
	Now     func() time.Time
}

type statusBody struct {
	Live *bool `json:"live" validate:"required"`
}

// PUT /seller/:vendorId/status
func (h *SellerHandler) SetStatus(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId")
	if err != nil {
		return fail(c, "vendor.status", err)
	}
	var body statusBody
	if err := parseBody(c, &body); err != nil {
		return fail(c, "vendor.status", err)
	}
	if err := h.Catalog.SetVendorStatus(c.UserContext(), ids[0], *body.Live); err != nil {
		return fail(c, "vendor.status", err)
	}
	applog.Audit(c, "vendor.status", map[string]any{"live": *body.Live})
	return c.JSON(fiber.Map{"vendorId": ids[0], "live": *body.Live})
}

// POST /upload/:vendorId/sign returns parameters for a direct browser upload.
func (h *SellerHandler) SignUpload(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId")
	if err != nil {
		return fail(c, "upload.sign", err)
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	up, err := h.Blobs.SignUpload(blob.VendorFolder(ids[0]), now())
	if errors.Is(err, blob.ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "photo uploads are not configured"})
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "upload.sign", map[string]any{"folder": up.Folder})
	return c.JSON(up)
}
