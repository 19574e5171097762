package browse

import (
	"context"
	"database/sql"
	"errors"

	"stallhub/internal/domain"
	"stallhub/internal/repos"
)

// Catalog is the durable read side the resolvers need.
type Catalog interface {
	Categories(ctx context.Context, vendorID string) ([]domain.Category, error)
	// Category returns (nil, nil) when the category no longer exists.
	Category(ctx context.Context, vendorID, categoryID string) (*domain.Category, error)
	Items(ctx context.Context, categoryID string) ([]domain.FoodItem, error)
}

// RepoCatalog reads through the sqlx repos.
type RepoCatalog struct {
	Cats  *repos.CategoryRepo
	Foods *repos.ItemRepo
}

func NewRepoCatalog(cats *repos.CategoryRepo, items *repos.ItemRepo) *RepoCatalog {
	return &RepoCatalog{Cats: cats, Foods: items}
}

func (r *RepoCatalog) Categories(ctx context.Context, vendorID string) ([]domain.Category, error) {
	return r.Cats.ByVendor(ctx, vendorID)
}

func (r *RepoCatalog) Category(ctx context.Context, vendorID, categoryID string) (*domain.Category, error) {
	c, err := r.Cats.Get(ctx, vendorID, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Items joins the placements to their canonical rows in one query.
// Placements whose item is gone drop out of the join.
func (r *RepoCatalog) Items(ctx context.Context, categoryID string) ([]domain.FoodItem, error) {
	return r.Foods.InCategory(ctx, categoryID)
}
