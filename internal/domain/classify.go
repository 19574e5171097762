package domain

import "strings"

// StallCategoryName is the category name that marks its vendor as a stall.
const StallCategoryName = "stall"

// IsStallCategory reports whether name is exactly the stall marker, ignoring case and padding.
func IsStallCategory(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), StallCategoryName)
}

// ReservedForStalls reports whether a cafe may not use name.
func ReservedForStalls(name string) bool {
	return strings.Contains(strings.ToLower(name), StallCategoryName)
}

// ClassifyVendor derives the vendor type from its categories. ok is false when
// there is nothing to classify, in which case the caller keeps the current type.
func ClassifyVendor(categories []Category) (VendorType, bool) {
	if len(categories) == 0 {
		return VendorUnclassified, false
	}
	for _, c := range categories {
		if IsStallCategory(c.Name) {
			return VendorStall, true
		}
	}
	return VendorCafe, true
}
