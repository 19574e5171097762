package repos

import (
	"context"
	"database/sql"
	"errors"

	"stallhub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id,vendor_id,name,visibility,photo_url,created_at,deleting_at`

// ByVendor lists every category of a vendor, oldest first.
func (r *CategoryRepo) ByVendor(ctx context.Context, vendorID string) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+categoryCols+`
	  FROM categories
	  WHERE vendor_id = ?
	  ORDER BY created_at, id
	`), vendorID)
	return out, err
}

// Page returns up to limit categories after the lastDoc cursor. It fetches
// one extra row to learn whether another page exists. An unknown cursor
// starts from the beginning.
func (r *CategoryRepo) Page(ctx context.Context, vendorID string, limit int, lastDoc string) (domain.CategoryPage, error) {
	where := `vendor_id = ?`
	args := []any{vendorID}
	if lastDoc != "" {
		var cursor domain.Category
		err := r.db.GetContext(ctx, &cursor, r.db.Rebind(`SELECT `+categoryCols+` FROM categories WHERE id=? AND vendor_id=?`), lastDoc, vendorID)
		switch {
		case err == nil:
			where += ` AND (created_at > ? OR (created_at = ? AND id > ?))`
			args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return domain.CategoryPage{}, err
		}
	}
	args = append(args, limit+1)

	var rows []domain.Category
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT `+categoryCols+`
	  FROM categories
	  WHERE `+where+`
	  ORDER BY created_at, id
	  LIMIT ?
	`), args...); err != nil {
		return domain.CategoryPage{}, err
	}

	page := domain.CategoryPage{Categories: rows}
	if len(rows) > limit {
		page.Categories = rows[:limit]
		page.HasMore = true
	}
	if page.Categories == nil {
		page.Categories = []domain.Category{}
	}
	if page.HasMore {
		page.LastDoc = page.Categories[len(page.Categories)-1].ID
	}
	return page, nil
}

// Get returns the category only if it belongs to vendorID.
func (r *CategoryRepo) Get(ctx context.Context, vendorID, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
	  SELECT `+categoryCols+` FROM categories WHERE id=? AND vendor_id=?
	`), id, vendorID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO categories(`+categoryCols+`)
		VALUES(:id,:vendor_id,:name,:visibility,:photo_url,:created_at,:deleting_at)
	`, c)
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE categories SET name=:name, visibility=:visibility, photo_url=:photo_url
		WHERE id=:id AND vendor_id=:vendor_id
	`, c)
	return err
}

// MarkDeleting persists the cascade marker. A marker already set is kept so
// the first attempt's time is what the sweep sees.
func (r *CategoryRepo) MarkDeleting(ctx context.Context, id, at string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE categories SET deleting_at=? WHERE id=? AND deleting_at=''
	`), at, id)
	return err
}

// Delete removes the category row and any placements still pointing at it.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM category_items WHERE category_id=?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Deleting lists categories whose cascade started but never finished.
func (r *CategoryRepo) Deleting(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+` FROM categories WHERE deleting_at <> '' ORDER BY deleting_at
	`)
	return out, err
}

// All returns every category; the reconcile sweep compares it with presence.
func (r *CategoryRepo) All(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `SELECT `+categoryCols+` FROM categories ORDER BY vendor_id, created_at, id`)
	return out, err
}
