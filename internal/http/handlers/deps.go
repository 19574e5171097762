package handlers

import (
	"time"

	"stallhub/internal/blob"
	"stallhub/internal/browse"
	"stallhub/internal/config"
	"stallhub/internal/presence"
	"stallhub/internal/repos"
	"stallhub/internal/search"
	"stallhub/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Sweeper *services.Sweeper

	CategoryHandler *CategoryHandler
	ItemHandler     *ItemHandler
	SellerHandler   *SellerHandler
	SearchHandler   *SearchHandler
	BrowseHandler   *BrowseHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, p *presence.Adapter, blobs blob.Store) *Deps {
	vendorRepo := repos.NewVendorRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	itemRepo := repos.NewItemRepo(db)

	catalogSvc := services.NewCatalogService(vendorRepo, catRepo, itemRepo, p, blobs)
	view := browse.NewRepoCatalog(catRepo, itemRepo)

	return &Deps{
		Auth:    &services.AuthService{Vendors: vendorRepo},
		Catalog: catalogSvc,
		Sweeper: &services.Sweeper{Catalog: catalogSvc, OrphanGrace: cfg.OrphanGrace},

		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ItemHandler:     &ItemHandler{Catalog: catalogSvc},
		SellerHandler:   &SellerHandler{Catalog: catalogSvc, Blobs: blobs, Now: time.Now},
		SearchHandler:   &SearchHandler{Search: search.NewResolver(view, vendorRepo, p)},
		BrowseHandler: &BrowseHandler{
			Browse:  browse.NewResolver(view, p),
			Vendors: vendorRepo,
			Store:   p.Store(),
			Resync:  cfg.ResyncInterval,
		},
	}
}
