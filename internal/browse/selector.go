// Package browse resolves which food items a customer can currently see.
//
// Resolution reads membership from presence (who is live, which categories
// are shown) and content from the durable catalog, and treats a failure of
// either for one vendor or category as "contributes nothing" rather than
// failing the whole view.
package browse

import (
	"fmt"

	"stallhub/internal/domain"
	"stallhub/internal/presence"
)

type ViewKind string

const (
	ViewAll        ViewKind = "all"
	ViewVendorType ViewKind = "type"
	ViewVendor     ViewKind = "vendor"
	ViewCategory   ViewKind = "category"
)

// Selector narrows a view. VendorType uses the presence spelling
// ("stall" or "shop").
type Selector struct {
	Kind       ViewKind
	VendorType string
	VendorID   string
	CategoryID string
}

// ParseSelector builds a selector from the browse query parameters.
// view may be all, stall, shop, vendor or category.
func ParseSelector(view, vendorID, categoryID string) (Selector, error) {
	switch view {
	case "", "all":
		return Selector{Kind: ViewAll}, nil
	case "stall", "shop":
		return Selector{Kind: ViewVendorType, VendorType: view}, nil
	case "cafe":
		return Selector{Kind: ViewVendorType, VendorType: domain.VendorCafe.PresenceValue()}, nil
	case "vendor":
		if vendorID == "" {
			return Selector{}, domain.Invalid("vendorId", "required for view=vendor")
		}
		return Selector{Kind: ViewVendor, VendorID: vendorID}, nil
	case "category":
		if vendorID == "" || categoryID == "" {
			return Selector{}, domain.Invalid("categoryId", "vendorId and categoryId are required for view=category")
		}
		return Selector{Kind: ViewCategory, VendorID: vendorID, CategoryID: categoryID}, nil
	}
	return Selector{}, domain.Invalid("view", fmt.Sprintf("unknown view %q", view))
}

// matchesVendor applies the vendor part of the selector against a snapshot.
func (s Selector) matchesVendor(snap presence.Snapshot, vendorID string) bool {
	switch s.Kind {
	case ViewVendorType:
		return snap.VendorType[vendorID] == s.VendorType
	case ViewVendor, ViewCategory:
		return vendorID == s.VendorID
	}
	return true
}

func (s Selector) matchesCategory(categoryID string) bool {
	return s.Kind != ViewCategory || categoryID == s.CategoryID
}

// active is the set of live vendors the selector keeps.
func (s Selector) active(snap presence.Snapshot) map[string]bool {
	out := map[string]bool{}
	for id, live := range snap.VendorStatus {
		if live && s.matchesVendor(snap, id) {
			out[id] = true
		}
	}
	return out
}
