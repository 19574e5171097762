package repos

import (
	"context"

	"stallhub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type VendorRepo struct{ DB *sqlx.DB }

func NewVendorRepo(db *sqlx.DB) *VendorRepo { return &VendorRepo{DB: db} }

const vendorCols = `id,name,description,landmark,photos_json,vendor_type,api_key_hash,created_at`

func (r *VendorRepo) ByID(ctx context.Context, id string) (*domain.Vendor, error) {
	var v domain.Vendor
	err := r.DB.GetContext(ctx, &v, r.DB.Rebind(`SELECT `+vendorCols+` FROM vendors WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ByIDs resolves many vendors in one query; missing ids are absent from the map.
func (r *VendorRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.Vendor, error) {
	out := make(map[string]domain.Vendor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+vendorCols+` FROM vendors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Vendor
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.ID] = v
	}
	return out, nil
}

func (r *VendorRepo) List(ctx context.Context) ([]domain.Vendor, error) {
	var out []domain.Vendor
	err := r.DB.SelectContext(ctx, &out, `SELECT `+vendorCols+` FROM vendors ORDER BY id`)
	return out, err
}

func (r *VendorRepo) Create(ctx context.Context, v domain.Vendor) error {
	if v.CreatedAt == "" {
		v.CreatedAt = now()
	}
	if v.PhotosJSON == "" {
		v.PhotosJSON = "[]"
	}
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO vendors(`+vendorCols+`)
		VALUES(:id,:name,:description,:landmark,:photos_json,:vendor_type,:api_key_hash,:created_at)
	`, v)
	return err
}

func (r *VendorRepo) SetType(ctx context.Context, id string, t domain.VendorType) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE vendors SET vendor_type=? WHERE id=?`), string(t), id)
	return err
}
