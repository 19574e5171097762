// Package search ranks visible food items against a free-text query.
package search

import (
	"context"
	"sort"
	"strings"

	"stallhub/internal/browse"
	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/presence"
)

// Match tiers, best first. NoMatch excludes the item.
const (
	NoMatch = iota
	MatchItemName
	MatchItemDescription
	MatchCategoryName
	MatchVendorName
	MatchVendorDescription
	MatchVendorLandmark
)

// MatchPriority returns the first tier whose field contains q, compared
// case-insensitively. q must already be lowercased.
func MatchPriority(q string, it domain.FoodItem, c domain.Category, v domain.Vendor) int {
	fields := [...]string{it.Name, it.Description, c.Name, v.Name, v.Description, v.Landmark}
	for i, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return i + 1
		}
	}
	return NoMatch
}

type VendorLookup interface {
	ByIDs(ctx context.Context, ids []string) (map[string]domain.Vendor, error)
}

type Resolver struct {
	Catalog  browse.Catalog
	Vendors  VendorLookup
	Presence *presence.Adapter
}

func NewResolver(cat browse.Catalog, vendors VendorLookup, p *presence.Adapter) *Resolver {
	return &Resolver{Catalog: cat, Vendors: vendors, Presence: p}
}

type hit struct {
	id       string
	priority int
}

// Search scans every live vendor's visible categories and returns matching
// item ids ordered by tier. Ties keep scan order (vendor id, then category
// creation, then item id). An item placed twice appears once, at its best tier.
func (r *Resolver) Search(ctx context.Context, query string) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, domain.Invalid("q", "required")
	}
	snap, err := r.Presence.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	liveIDs := snap.LiveVendors()
	sort.Strings(liveIDs)
	vendors, err := r.Vendors.ByIDs(ctx, liveIDs)
	if err != nil {
		return nil, err
	}

	var hits []hit
	for _, vid := range liveIDs {
		v, ok := vendors[vid]
		if !ok {
			continue // live in presence but gone durably
		}
		cats, err := r.Catalog.Categories(ctx, vid)
		if err != nil {
			applog.Warn(nil, "search.vendor.failed", err, map[string]any{"vendor_id": vid})
			continue
		}
		for _, c := range cats {
			if c.Deleting() || !snap.CategoryVisible(vid, c.ID) {
				continue
			}
			items, err := r.Catalog.Items(ctx, c.ID)
			if err != nil {
				applog.Warn(nil, "search.category.failed", err, map[string]any{"vendor_id": vid, "category_id": c.ID})
				continue
			}
			for _, it := range items {
				if p := MatchPriority(q, it, c, v); p != NoMatch {
					hits = append(hits, hit{id: it.ID, priority: p})
				}
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].priority < hits[j].priority })
	out := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if seen[h.id] {
			continue
		}
		seen[h.id] = true
		out = append(out, h.id)
	}
	return out, nil
}
