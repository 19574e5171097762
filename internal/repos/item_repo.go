package repos

import (
	"context"
	"encoding/json"
	"errors"

	"stallhub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `f.id, f.seller_id, f.name, f.description, f.price, f.photo_urls_json, f.rating, f.created_at`

// batchSize keeps IN lists under SQLite's bound-parameter limit.
const batchSize = 500

func hydrate(items []domain.FoodItem) []domain.FoodItem {
	for i := range items {
		items[i].PhotoURLs = nil
		if items[i].PhotoURLsJSON != "" {
			_ = json.Unmarshal([]byte(items[i].PhotoURLsJSON), &items[i].PhotoURLs)
		}
		if items[i].PhotoURLs == nil {
			items[i].PhotoURLs = []string{}
		}
	}
	return items
}

func encodePhotos(urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	return string(b)
}

// Placements lists the CategoryItem references of a category.
func (r *ItemRepo) Placements(ctx context.Context, categoryID string) ([]domain.CategoryItem, error) {
	var out []domain.CategoryItem
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT category_id, food_item_id, created_at
	  FROM category_items WHERE category_id=? ORDER BY food_item_id
	`), categoryID)
	return out, err
}

// ByIDs batch-resolves canonical items. Ids without a row are skipped.
func (r *ItemRepo) ByIDs(ctx context.Context, ids []string) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		query, args, err := sqlx.In(`SELECT `+itemCols+` FROM food_items f WHERE f.id IN (?)`, ids[start:end])
		if err != nil {
			return nil, err
		}
		var rows []domain.FoodItem
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return hydrate(out), nil
}

// InCategory resolves every live item placed in a category.
func (r *ItemRepo) InCategory(ctx context.Context, categoryID string) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+itemCols+`
	  FROM category_items ci JOIN food_items f ON f.id = ci.food_item_id
	  WHERE ci.category_id = ?
	  ORDER BY ci.food_item_id
	`), categoryID)
	return hydrate(out), err
}

// Page returns items after lastDocID ordered by id. HasMore is a full page.
func (r *ItemRepo) Page(ctx context.Context, categoryID string, limit int, lastDocID string) ([]domain.FoodItem, error) {
	where := `ci.category_id = ?`
	args := []any{categoryID}
	if lastDocID != "" {
		where += ` AND ci.food_item_id > ?`
		args = append(args, lastDocID)
	}
	args = append(args, limit)
	var out []domain.FoodItem
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+itemCols+`
	  FROM category_items ci JOIN food_items f ON f.id = ci.food_item_id
	  WHERE `+where+`
	  ORDER BY ci.food_item_id
	  LIMIT ?
	`), args...)
	return hydrate(out), err
}

// Placed returns the item only if it is referenced from categoryID.
func (r *ItemRepo) Placed(ctx context.Context, categoryID, itemID string) (*domain.FoodItem, error) {
	var it domain.FoodItem
	err := r.db.GetContext(ctx, &it, r.db.Rebind(`
	  SELECT `+itemCols+`
	  FROM category_items ci JOIN food_items f ON f.id = ci.food_item_id
	  WHERE ci.category_id = ? AND ci.food_item_id = ?
	`), categoryID, itemID)
	if err != nil {
		return nil, err
	}
	return &hydrate([]domain.FoodItem{it})[0], nil
}

// ErrItemTaken means the requested item id already belongs to another seller.
var ErrItemTaken = errors.New("food item id belongs to another seller")

// CreatePlaced writes the canonical item and its placement in one
// transaction and returns the stored row. Re-adding an existing id is only
// allowed for the same seller; the stored row wins over it in that case.
func (r *ItemRepo) CreatePlaced(ctx context.Context, it domain.FoodItem, categoryID string) (*domain.FoodItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	it.PhotoURLsJSON = encodePhotos(it.PhotoURLs)
	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO food_items(id,seller_id,name,description,price,photo_urls_json,rating,created_at)
		VALUES(:id,:seller_id,:name,:description,:price,:photo_urls_json,:rating,:created_at)
		ON CONFLICT(id) DO NOTHING
	`, it)
	if err != nil {
		return nil, err
	}
	stored := it
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		if err := tx.GetContext(ctx, &stored, tx.Rebind(`SELECT `+itemCols+` FROM food_items f WHERE f.id=?`), it.ID); err != nil {
			return nil, err
		}
		if stored.SellerID != it.SellerID {
			return nil, ErrItemTaken
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO category_items(category_id,food_item_id,created_at)
		VALUES(?,?,?)
		ON CONFLICT(category_id,food_item_id) DO NOTHING
	`), categoryID, it.ID, it.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &hydrate([]domain.FoodItem{stored})[0], nil
}

// CreateUnplaced writes only the canonical row. Tests and data imports use it
// to model items whose placement was never written.
func (r *ItemRepo) CreateUnplaced(ctx context.Context, it domain.FoodItem) error {
	it.PhotoURLsJSON = encodePhotos(it.PhotoURLs)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO food_items(id,seller_id,name,description,price,photo_urls_json,rating,created_at)
		VALUES(:id,:seller_id,:name,:description,:price,:photo_urls_json,:rating,:created_at)
	`, it)
	return err
}

func (r *ItemRepo) Update(ctx context.Context, it domain.FoodItem) error {
	it.PhotoURLsJSON = encodePhotos(it.PhotoURLs)
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE food_items
		SET name=:name, description=:description, price=:price, photo_urls_json=:photo_urls_json
		WHERE id=:id
	`, it)
	return err
}

// Delete removes the canonical item and every placement referencing it.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM category_items WHERE food_item_id=?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM food_items WHERE id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Orphans lists items with no placement created before the cutoff.
func (r *ItemRepo) Orphans(ctx context.Context, before string) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+itemCols+`
	  FROM food_items f
	  WHERE f.created_at < ?
	    AND NOT EXISTS (SELECT 1 FROM category_items ci WHERE ci.food_item_id = f.id)
	  ORDER BY f.id
	`), before)
	return hydrate(out), err
}

// DeletePlacement drops one reference without touching the canonical item.
func (r *ItemRepo) DeletePlacement(ctx context.Context, categoryID, itemID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM category_items WHERE category_id=? AND food_item_id=?
	`), categoryID, itemID)
	return err
}
