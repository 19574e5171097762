package browse

import (
	"context"
	"sort"

	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/presence"
)

// Resolver answers one-shot browse requests.
type Resolver struct {
	Catalog  Catalog
	Presence *presence.Adapter
}

func NewResolver(cat Catalog, p *presence.Adapter) *Resolver {
	return &Resolver{Catalog: cat, Presence: p}
}

// Resolve is the cold path: one snapshot, then durable reads for every
// active vendor. Only a failed snapshot read is an error.
func (r *Resolver) Resolve(ctx context.Context, sel Selector) ([]domain.Placed, error) {
	snap, err := r.Presence.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveSnapshot(ctx, r.Catalog, snap, sel), nil
}

// ResolveSnapshot materializes the visible items for snap.
func ResolveSnapshot(ctx context.Context, cat Catalog, snap presence.Snapshot, sel Selector) []domain.Placed {
	v := NewView(cat, sel)
	v.Apply(ctx, snap)
	return v.Items()
}

// loadVendor reads every visible category of one vendor. A failed category
// list contributes nothing; so does a failed item read for one category.
func loadVendor(ctx context.Context, cat Catalog, snap presence.Snapshot, sel Selector, vendorID string) map[string][]domain.Placed {
	out := map[string][]domain.Placed{}
	cats, err := cat.Categories(ctx, vendorID)
	if err != nil {
		applog.Warn(nil, "browse.vendor.failed", err, map[string]any{"vendor_id": vendorID})
		return out
	}
	for _, c := range cats {
		if !sel.matchesCategory(c.ID) || c.Deleting() || !snap.CategoryVisible(vendorID, c.ID) {
			continue
		}
		if items, ok := loadCategory(ctx, cat, vendorID, c.ID); ok {
			out[c.ID] = items
		}
	}
	return out
}

func loadCategory(ctx context.Context, cat Catalog, vendorID, categoryID string) ([]domain.Placed, bool) {
	items, err := cat.Items(ctx, categoryID)
	if err != nil {
		applog.Warn(nil, "browse.category.failed", err, map[string]any{"vendor_id": vendorID, "category_id": categoryID})
		return nil, false
	}
	out := make([]domain.Placed, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Placed{VendorID: vendorID, CategoryID: categoryID, Item: it})
	}
	return out, true
}

// View is an incrementally maintained browse result for one selector.
// It is not safe for concurrent use; each viewer owns its own.
type View struct {
	cat   Catalog
	sel   Selector
	snap  presence.Snapshot
	items map[string]map[string][]domain.Placed
}

func NewView(cat Catalog, sel Selector) *View {
	return &View{cat: cat, sel: sel, items: map[string]map[string][]domain.Placed{}}
}

func (v *View) Selector() Selector { return v.sel }

// Apply moves the view to next and returns what changed in presence terms.
// Applying to a fresh view is the cold resolution.
func (v *View) Apply(ctx context.Context, next presence.Snapshot) Delta {
	d := Diff(v.snap, next, v.sel)
	for _, id := range d.Removed {
		delete(v.items, id)
	}
	for _, id := range d.Added {
		v.items[id] = loadVendor(ctx, v.cat, next, v.sel, id)
	}
	for vendorID, cats := range d.Changed {
		byCat := v.items[vendorID]
		if byCat == nil {
			byCat = map[string][]domain.Placed{}
			v.items[vendorID] = byCat
		}
		for _, catID := range cats {
			delete(byCat, catID)
			if !v.sel.matchesCategory(catID) || !next.CategoryVisible(vendorID, catID) {
				continue
			}
			// presence may name a category that is gone or mid-delete
			c, err := v.cat.Category(ctx, vendorID, catID)
			if err != nil {
				applog.Warn(nil, "browse.category.failed", err, map[string]any{"vendor_id": vendorID, "category_id": catID})
				continue
			}
			if c == nil || c.Deleting() {
				continue
			}
			if items, ok := loadCategory(ctx, v.cat, vendorID, catID); ok {
				byCat[catID] = items
			}
		}
	}
	v.snap = next
	return d
}

// Reset drops everything and resolves next from scratch.
func (v *View) Reset(ctx context.Context, next presence.Snapshot) {
	v.snap = presence.Snapshot{}
	v.items = map[string]map[string][]domain.Placed{}
	v.Apply(ctx, next)
}

// Items returns the current result ordered by placement key.
func (v *View) Items() []domain.Placed {
	out := []domain.Placed{}
	for _, byCat := range v.items {
		for _, items := range byCat {
			out = append(out, items...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
