package handlers

import (
	applog "stallhub/internal/log"
	"stallhub/internal/services"
	"stallhub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	Catalog *services.CatalogService
}

type addItemBody struct {
	ID          string   `json:"id" validate:"omitempty,max=64"`
	Name        string   `json:"name" validate:"required,max=80"`
	Description string   `json:"description" validate:"max=500"`
	Price       float64  `json:"price" validate:"gt=0"`
	PhotoURLs   []string `json:"photoURLs" validate:"required,min=1,dive,required,url"`
}

type updateItemBody struct {
	Name        *string   `json:"name" validate:"omitempty,max=80"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	PhotoURLs   *[]string `json:"photoURLs" validate:"omitempty,min=1,dive,required,url"`
}

// GET /categories/:vendorId/:categoryId/items
func (h *ItemHandler) List(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId")
	if err != nil {
		return fail(c, "item.list", err)
	}
	page, err := h.Catalog.ListItems(c.UserContext(), ids[0], ids[1], validate.Limit(c.Query("limit")), c.Query("lastDocId"))
	if err != nil {
		return fail(c, "item.list", err)
	}
	return c.JSON(page)
}

// POST /categories/:vendorId/items/:categoryId/add
func (h *ItemHandler) Add(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId")
	if err != nil {
		return fail(c, "item.add", err)
	}
	var body addItemBody
	if err := parseBody(c, &body); err != nil {
		return fail(c, "item.add", err)
	}
	if body.ID != "" {
		if _, ok := validate.ID(body.ID); !ok {
			return fail(c, "item.add", invalidID("id"))
		}
	}
	it, err := h.Catalog.AddFoodItem(c.UserContext(), ids[0], ids[1], services.ItemInput{
		ID: body.ID, Name: body.Name, Description: body.Description, Price: body.Price, PhotoURLs: body.PhotoURLs,
	})
	if err != nil {
		return fail(c, "item.add", err)
	}
	applog.Audit(c, "item.add", map[string]any{"category_id": ids[1], "food_item_id": it.ID})
	return c.Status(fiber.StatusCreated).JSON(it)
}

// GET /seller/:vendorId/items/:categoryId/:foodItemId
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId", "foodItemId")
	if err != nil {
		return fail(c, "item.get", err)
	}
	it, err := h.Catalog.GetFoodItem(c.UserContext(), ids[0], ids[1], ids[2])
	if err != nil {
		return fail(c, "item.get", err)
	}
	return c.JSON(it)
}

// PUT /seller/:vendorId/update/:categoryId/:foodItemId
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId", "foodItemId")
	if err != nil {
		return fail(c, "item.update", err)
	}
	var body updateItemBody
	if err := parseBody(c, &body); err != nil {
		return fail(c, "item.update", err)
	}
	it, err := h.Catalog.UpdateFoodItem(c.UserContext(), ids[0], ids[1], ids[2], services.ItemPatch{
		Name: body.Name, Description: body.Description, Price: body.Price, PhotoURLs: body.PhotoURLs,
	})
	if err != nil {
		return fail(c, "item.update", err)
	}
	applog.Audit(c, "item.update", map[string]any{"food_item_id": it.ID})
	return c.JSON(it)
}

// DELETE /seller/:vendorId/item/:categoryId/:foodItemId
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	ids, err := pathIDs(c, "vendorId", "categoryId", "foodItemId")
	if err != nil {
		return fail(c, "item.delete", err)
	}
	if err := h.Catalog.DeleteFoodItem(c.UserContext(), ids[0], ids[1], ids[2]); err != nil {
		return fail(c, "item.delete", err)
	}
	applog.Audit(c, "item.delete", map[string]any{"food_item_id": ids[2]})
	return c.JSON(fiber.Map{"deleted": ids[2]})
}
