package handlers

import (
	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/services"
	"stallhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

type addCategoryBody struct {
	Name       string `json:"categoryName" validate:"required,max=60"`
	Visibility *bool  `json:"visibility"`
	PhotoURL   string `json:"photoURL" validate:"omitempty,url"`
}

type updateCategoryBody struct {
	Name       *string `json:"categoryName" validate:"omitempty,max=60"`
	Visibility *bool   `json:"visibility"`
	PhotoURL   *string `json:"photoURL" validate:"omitempty,url"`
}

// pathIDs validates the named route params and returns them in order.
func pathIDs(c *fiber.Ctx, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		id, ok := validate.ID(c.Params(n))
		if !ok {
			return nil, invalidID(n)
		}
		out[i] = id
	}
	return out, nil
}

func invalidID(field string) error { return domain.Invalid(field, "invalid id") }

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.Invalid("", "malformed JSON body")
	}
	return validate.Struct(dst)
}

// GET /categories/:vendorId
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId")
	if err != nil {
		return fail(c, "category.list", err)
	}
	page, err := h.Catalog.ListCategories(c.UserContext(), ids[0], validate.Limit(c.Query("limit")), c.Query("lastDoc"))
	if err != nil {
		return fail(c, "category.list", err)
	}
	return c.JSON(page)
}

// GET /categories/:vendorId/:categoryId
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId")
	if err != nil {
		return fail(c, "category.get", err)
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), ids[0], ids[1])
	if err != nil {
		return fail(c, "category.get", err)
	}
	return c.JSON(cat)
}

// POST /categories/:vendorId/add
func (h *CategoryHandler) Add(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId")
	if err != nil {
		return fail(c, "category.add", err)
	}
	var body addCategoryBody
	if err := parseBody(c, &body); err != nil {
		return fail(c, "category.add", err)
	}
	cat, err := h.Catalog.AddCategory(c.UserContext(), ids[0], services.CategoryInput{
		Name: body.Name, Visible: body.Visibility, PhotoURL: body.PhotoURL,
	})
	if cat == nil {
		return fail(c, "category.add", err)
	}
	applog.Audit(c, "category.add", map[string]any{"category_id": cat.ID, "name": cat.Name})
	if err != nil {
		// durable write landed; presence will be repaired by the sweep
		return fail(c, "category.add", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// PUT /categories/:vendorId/update/:categoryId
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId")
	if err != nil {
		return fail(c, "category.update", err)
	}
	var body updateCategoryBody
	if err := parseBody(c, &body); err != nil {
		return fail(c, "category.update", err)
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), ids[0], ids[1], services.CategoryPatch{
		Name: body.Name, Visible: body.Visibility, PhotoURL: body.PhotoURL,
	})
	if cat == nil {
		return fail(c, "category.update", err)
	}
	applog.Audit(c, "category.update", map[string]any{"category_id": cat.ID})
	if err != nil {
		return fail(c, "category.update", err)
	}
	return c.JSON(cat)
}

// DELETE /categories/:vendorId/delete/:categoryId
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId")
	if err != nil {
		return fail(c, "category.delete", err)
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), ids[0], ids[1]); err != nil {
		return fail(c, "category.delete", err)
	}
	applog.Audit(c, "category.delete", map[string]any{"category_id": ids[1]})
	return c.JSON(fiber.Map{"deleted": ids[1]})
}
