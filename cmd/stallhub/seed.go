package main

import (
	"context"
	"log"

	"stallhub/internal/http/handlers"
	"stallhub/internal/services"
)

type seedItem struct {
	id, name, desc string
	price          float64
	photo          string
}

type seedCategory struct {
	vendorID, name string
	items          []seedItem
}

const demoPhoto = "https://res.cloudinary.com/demo/image/upload/v1/samples/food/"

var demoCatalog = []seedCategory{
	{vendorID: "v-mama-lee", name: "stall", items: []seedItem{
		{"f-beef-noodle", "Beef noodle soup", "Slow braised shank, hand pulled noodles", 8.5, demoPhoto + "spices.jpg"},
		{"f-pork-dumpling", "Pork dumplings", "Ten pieces, chilli oil on the side", 6.0, demoPhoto + "dessert.jpg"},
	}},
	{vendorID: "v-bean-there", name: "Coffee", items: []seedItem{
		{"f-flat-white", "Flat white", "Double ristretto, steamed milk", 4.2, demoPhoto + "pot-mussels.jpg"},
	}},
	{vendorID: "v-bean-there", name: "Pastries", items: []seedItem{
		{"f-croissant", "Butter croissant", "Baked every morning", 3.5, demoPhoto + "fish-vegetables.jpg"},
	}},
}

// seedCatalog builds the demo categories through the service so vendor
// types and presence are derived the normal way. Vendors that already
// have categories are left alone.
func seedCatalog(ctx context.Context, d *handlers.Deps) error {
	for _, sc := range demoCatalog {
		cats, err := d.Catalog.Cats.ByVendor(ctx, sc.vendorID)
		if err != nil {
			return err
		}
		exists := false
		for _, c := range cats {
			if c.Name == sc.name {
				exists = true
			}
		}
		if exists {
			continue
		}
		if len(cats) > 0 && sc.name == "stall" {
			continue
		}
		c, err := d.Catalog.AddCategory(ctx, sc.vendorID, services.CategoryInput{Name: sc.name})
		if c == nil {
			return err
		}
		for _, it := range sc.items {
			_, err := d.Catalog.AddFoodItem(ctx, sc.vendorID, c.ID, services.ItemInput{
				ID: it.id, Name: it.name, Description: it.desc, Price: it.price, PhotoURLs: []string{it.photo},
			})
			if err != nil {
				return err
			}
		}
		log.Printf("[seed] %s/%s with %d items", sc.vendorID, sc.name, len(sc.items))
	}
	return nil
}
