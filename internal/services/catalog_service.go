package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"stallhub/internal/blob"
	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/presence"
	"stallhub/internal/repos"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// CatalogService owns every catalog mutation. Durable writes go first and
// presence follows; a presence failure after a durable write is returned as
// *domain.UpstreamUnavailable and repaired by the reconcile sweep.
type CatalogService struct {
	Vendors  *repos.VendorRepo
	Cats     *repos.CategoryRepo
	Items    *repos.ItemRepo
	Presence *presence.Adapter
	Blobs    blob.Store

	Now   func() time.Time
	NewID func() string
}

func NewCatalogService(vendors *repos.VendorRepo, cats *repos.CategoryRepo, items *repos.ItemRepo, p *presence.Adapter, blobs blob.Store) *CatalogService {
	return &CatalogService{
		Vendors: vendors, Cats: cats, Items: items, Presence: p, Blobs: blobs,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

type CategoryInput struct {
	Name     string
	Visible  *bool
	PhotoURL string
}

type CategoryPatch struct {
	Name     *string
	Visible  *bool
	PhotoURL *string
}

type ItemInput struct {
	ID          string // optional; makes retries of the same add idempotent
	Name        string
	Description string
	Price       float64
	PhotoURLs   []string
}

type ItemPatch struct {
	Name        *string
	Description *string
	Price       *float64
	PhotoURLs   *[]string
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func (s *CatalogService) vendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	v, err := s.Vendors.ByID(ctx, vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("vendor", vendorID)
	}
	return v, err
}

// category loads a category of vendorID that is not being deleted.
func (s *CatalogService) category(ctx context.Context, vendorID, categoryID string) (*domain.Category, error) {
	c, err := s.Cats.Get(ctx, vendorID, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("category", categoryID)
	}
	if err != nil {
		return nil, err
	}
	if c.Deleting() {
		return nil, domain.NotFound("category", categoryID)
	}
	return c, nil
}

func (s *CatalogService) placed(ctx context.Context, vendorID, categoryID, itemID string) (*domain.Category, *domain.FoodItem, error) {
	c, err := s.category(ctx, vendorID, categoryID)
	if err != nil {
		return nil, nil, err
	}
	it, err := s.Items.Placed(ctx, categoryID, itemID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && it.SellerID != vendorID) {
		return nil, nil, domain.NotFound("foodItem", itemID)
	}
	if err != nil {
		return nil, nil, err
	}
	return c, it, nil
}

// checkCategoryName applies the naming rules against the categories the
// vendor would have after the change. others excludes the category being
// renamed. With no other categories the stored type still binds: a cafe
// that emptied its menu stays a cafe.
func checkCategoryName(name string, current domain.VendorType, others []domain.Category) error {
	prospective, _ := domain.ClassifyVendor(append(append([]domain.Category{}, others...), domain.Category{Name: name}))
	if len(others) == 0 && current == domain.VendorCafe {
		prospective = domain.VendorCafe
	}
	switch {
	case prospective == domain.VendorCafe && domain.ReservedForStalls(name):
		return domain.Invalid("categoryName", "names containing \"stall\" are reserved for stalls")
	case prospective == domain.VendorStall && len(others) > 0:
		return domain.Invalid("categoryName", "a stall has exactly one category")
	}
	return nil
}

func live(cats []domain.Category, skipID string) []domain.Category {
	out := make([]domain.Category, 0, len(cats))
	for _, c := range cats {
		if c.ID != skipID && !c.Deleting() {
			out = append(out, c)
		}
	}
	return out
}

func (s *CatalogService) AddCategory(ctx context.Context, vendorID string, in CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("categoryName", "required")
	}
	v, err := s.vendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	cats, err := s.Cats.ByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := checkCategoryName(name, v.Type, live(cats, "")); err != nil {
		return nil, err
	}

	visible := true
	if in.Visible != nil {
		visible = *in.Visible
	}
	c := domain.Category{
		ID:         s.NewID(),
		VendorID:   vendorID,
		Name:       name,
		Visibility: visible,
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		CreatedAt:  repos.Timestamp(s.Now()),
	}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Presence.SetCategoryStatus(ctx, vendorID, c.ID, visible); err != nil {
		return &c, err
	}
	if err := s.reclassify(ctx, vendorID); err != nil {
		return &c, err
	}
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, vendorID, categoryID string, p CategoryPatch) (*domain.Category, error) {
	c, err := s.category(ctx, vendorID, categoryID)
	if err != nil {
		return nil, err
	}
	renamed := false
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, domain.Invalid("categoryName", "required")
		}
		if name != c.Name {
			if domain.IsStallCategory(c.Name) && !domain.IsStallCategory(name) {
				return nil, domain.Invalid("categoryName", "the stall category cannot be renamed")
			}
			v, err := s.vendor(ctx, vendorID)
			if err != nil {
				return nil, err
			}
			cats, err := s.Cats.ByVendor(ctx, vendorID)
			if err != nil {
				return nil, err
			}
			if err := checkCategoryName(name, v.Type, live(cats, c.ID)); err != nil {
				return nil, err
			}
			c.Name = name
			renamed = true
		}
	}
	if p.Visible != nil {
		c.Visibility = *p.Visible
	}
	if p.PhotoURL != nil {
		c.PhotoURL = strings.TrimSpace(*p.PhotoURL)
	}
	if err := s.Cats.Update(ctx, *c); err != nil {
		return nil, err
	}
	if p.Visible != nil {
		if err := s.Presence.SetCategoryStatus(ctx, vendorID, categoryID, c.Visibility); err != nil {
			return c, err
		}
	}
	if renamed {
		if err := s.reclassify(ctx, vendorID); err != nil {
			return c, err
		}
	}
	return c, nil
}

// DeleteCategory runs the cascade. It hides the category and persists the
// deletion marker first, then deletes every referenced item independently.
// If any item fails the category stays marked and a later call (or the
// reconcile sweep) resumes where this one stopped.
func (s *CatalogService) DeleteCategory(ctx context.Context, vendorID, categoryID string) error {
	c, err := s.Cats.Get(ctx, vendorID, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("category", categoryID)
	}
	if err != nil {
		return err
	}
	return s.cascade(ctx, *c)
}

func (s *CatalogService) cascade(ctx context.Context, c domain.Category) error {
	if !c.Deleting() {
		if err := s.Cats.MarkDeleting(ctx, c.ID, repos.Timestamp(s.Now())); err != nil {
			return err
		}
	}
	if err := s.Presence.SetCategoryStatus(ctx, c.VendorID, c.ID, false); err != nil {
		return err
	}

	placements, err := s.Items.Placements(ctx, c.ID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.FoodItemID)
	}
	items, err := s.Items.ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.FoodItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var done []string
	failed := map[string]error{}
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || it.SellerID != c.VendorID {
			// canonical row gone, or not this vendor's: only the reference is ours
			err = s.Items.DeletePlacement(ctx, c.ID, id)
		} else {
			err = s.deleteItem(ctx, it)
		}
		if err != nil {
			failed[id] = err
			continue
		}
		done = append(done, id)
	}
	if len(failed) > 0 {
		applog.Warn(nil, "category.delete.partial", nil, map[string]any{
			"vendor_id": c.VendorID, "category_id": c.ID, "deleted": len(done), "failed": len(failed),
		})
		return &domain.PartialFailureError{Op: "deleteCategory", Succeeded: done, Failed: failed}
	}

	if err := s.Cats.Delete(ctx, c.ID); err != nil {
		return err
	}
	if c.PhotoURL != "" {
		if err := s.deletePhoto(ctx, c.VendorID, c.PhotoURL); err != nil {
			applog.Warn(nil, "category.photo.delete_failed", err, map[string]any{"category_id": c.ID})
		}
	}
	if err := s.Presence.RemoveCategoryStatus(ctx, c.VendorID, c.ID); err != nil {
		return err
	}
	return s.reclassify(ctx, c.VendorID)
}

// deleteItem removes photos first so a failed photo delete keeps the row
// and the next attempt retries it.
func (s *CatalogService) deleteItem(ctx context.Context, it domain.FoodItem) error {
	for _, u := range it.PhotoURLs {
		if err := s.deletePhoto(ctx, it.SellerID, u); err != nil {
			return &domain.UpstreamUnavailable{Store: "blob", Err: err}
		}
	}
	return s.Items.Delete(ctx, it.ID)
}

// deletePhoto destroys a stored photo only when it lives in the vendor's own
// upload folder. Anything else is left alone.
func (s *CatalogService) deletePhoto(ctx context.Context, vendorID, photoURL string) error {
	if !blob.Deletable(photoURL, vendorID) {
		applog.Warn(nil, "photo.delete.skipped", nil, map[string]any{"vendor_id": vendorID, "url": photoURL})
		return nil
	}
	return s.Blobs.Delete(ctx, photoURL)
}

func validPhotos(urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, domain.Invalid("photoURLs", "at least one photo is required")
	}
	return out, nil
}

func (s *CatalogService) AddFoodItem(ctx context.Context, vendorID, categoryID string, in ItemInput) (*domain.FoodItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "required")
	}
	if in.Price <= 0 {
		return nil, domain.Invalid("price", "must be greater than zero")
	}
	photos, err := validPhotos(in.PhotoURLs)
	if err != nil {
		return nil, err
	}
	if _, err := s.category(ctx, vendorID, categoryID); err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = s.NewID()
	}
	it := domain.FoodItem{
		ID:          id,
		SellerID:    vendorID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		PhotoURLs:   photos,
		CreatedAt:   repos.Timestamp(s.Now()),
	}
	stored, err := s.Items.CreatePlaced(ctx, it, categoryID)
	if errors.Is(err, repos.ErrItemTaken) {
		return nil, domain.Invalid("id", "already in use")
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateFoodItem changes only the canonical item; placements are untouched.
// Photos dropped by the update are deleted from blob storage best effort.
func (s *CatalogService) UpdateFoodItem(ctx context.Context, vendorID, categoryID, itemID string, p ItemPatch) (*domain.FoodItem, error) {
	_, it, err := s.placed(ctx, vendorID, categoryID, itemID)
	if err != nil {
		return nil, err
	}
	old := it.PhotoURLs
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, domain.Invalid("name", "required")
		}
		it.Name = name
	}
	if p.Description != nil {
		it.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		if *p.Price <= 0 {
			return nil, domain.Invalid("price", "must be greater than zero")
		}
		it.Price = *p.Price
	}
	if p.PhotoURLs != nil {
		photos, err := validPhotos(*p.PhotoURLs)
		if err != nil {
			return nil, err
		}
		it.PhotoURLs = photos
	}
	if err := s.Items.Update(ctx, *it); err != nil {
		return nil, err
	}
	if p.PhotoURLs != nil {
		keep := make(map[string]bool, len(it.PhotoURLs))
		for _, u := range it.PhotoURLs {
			keep[u] = true
		}
		for _, u := range old {
			if keep[u] {
				continue
			}
			if err := s.deletePhoto(ctx, it.SellerID, u); err != nil {
				applog.Warn(nil, "item.photo.delete_failed", err, map[string]any{"food_item_id": it.ID})
			}
		}
	}
	return it, nil
}

func (s *CatalogService) DeleteFoodItem(ctx context.Context, vendorID, categoryID, itemID string) error {
	_, it, err := s.placed(ctx, vendorID, categoryID, itemID)
	if err != nil {
		return err
	}
	return s.deleteItem(ctx, *it)
}

func (s *CatalogService) ListCategories(ctx context.Context, vendorID string, limit int, lastDoc string) (domain.CategoryPage, error) {
	if _, err := s.vendor(ctx, vendorID); err != nil {
		return domain.CategoryPage{}, err
	}
	return s.Cats.Page(ctx, vendorID, clampLimit(limit), lastDoc)
}

func (s *CatalogService) GetCategory(ctx context.Context, vendorID, categoryID string) (*domain.Category, error) {
	return s.category(ctx, vendorID, categoryID)
}

func (s *CatalogService) ListItems(ctx context.Context, vendorID, categoryID string, limit int, lastDocID string) (domain.ItemPage, error) {
	c, err := s.category(ctx, vendorID, categoryID)
	if err != nil {
		return domain.ItemPage{}, err
	}
	limit = clampLimit(limit)
	items, err := s.Items.Page(ctx, categoryID, limit, lastDocID)
	if err != nil {
		return domain.ItemPage{}, err
	}
	page := domain.ItemPage{Items: items, CategoryName: c.Name, HasMore: len(items) == limit}
	if page.Items == nil {
		page.Items = []domain.FoodItem{}
	}
	if len(items) > 0 {
		page.LastDoc = items[len(items)-1].ID
	}
	return page, nil
}

func (s *CatalogService) GetFoodItem(ctx context.Context, vendorID, categoryID, itemID string) (*domain.FoodItem, error) {
	_, it, err := s.placed(ctx, vendorID, categoryID, itemID)
	return it, err
}

// SetVendorStatus is the seller's go-live switch.
func (s *CatalogService) SetVendorStatus(ctx context.Context, vendorID string, isLive bool) error {
	if _, err := s.vendor(ctx, vendorID); err != nil {
		return err
	}
	return s.Presence.SetVendorStatus(ctx, vendorID, isLive)
}

// reclassify derives the vendor type from its remaining categories and
// writes it to both stores. With no categories the type is left as is.
func (s *CatalogService) reclassify(ctx context.Context, vendorID string) error {
	v, err := s.vendor(ctx, vendorID)
	if err != nil {
		return err
	}
	cats, err := s.Cats.ByVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	t, ok := domain.ClassifyVendor(live(cats, ""))
	if !ok {
		return nil
	}
	if t != v.Type {
		if err := s.Vendors.SetType(ctx, vendorID, t); err != nil {
			return err
		}
	}
	cur, err := s.Presence.VendorType(ctx, vendorID)
	if err != nil {
		return err
	}
	if cur != t.PresenceValue() {
		return s.Presence.SetVendorType(ctx, vendorID, t)
	}
	return nil
}
