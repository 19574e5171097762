package domain

// VendorType is the durable classification of a vendor.
type VendorType string

const (
	VendorUnclassified VendorType = ""
	VendorStall        VendorType = "stall"
	VendorCafe         VendorType = "cafe"
)

// PresenceValue is the spelling used under vendorType/{id} in the presence store.
func (t VendorType) PresenceValue() string {
	switch t {
	case VendorStall:
		return "stall"
	case VendorCafe:
		return "shop"
	}
	return ""
}

// VendorTypeFromPresence maps "stall"/"shop" back to a VendorType.
func VendorTypeFromPresence(s string) VendorType {
	switch s {
	case "stall":
		return VendorStall
	case "shop", "cafe":
		return VendorCafe
	}
	return VendorUnclassified
}

type Vendor struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"stallName"`
	Description string     `db:"description" json:"stallDescription"`
	Landmark    string     `db:"landmark" json:"landMark"`
	PhotosJSON  string     `db:"photos_json" json:"-"`
	Type        VendorType `db:"vendor_type" json:"vendorType"`
	TokenHash   string     `db:"api_key_hash" json:"-"`
	CreatedAt   string     `db:"created_at" json:"createdAt"`
}

type Category struct {
	ID         string `db:"id" json:"id"`
	VendorID   string `db:"vendor_id" json:"vendorId"`
	Name       string `db:"name" json:"categoryName"`
	Visibility bool   `db:"visibility" json:"visibility"`
	PhotoURL   string `db:"photo_url" json:"photoURL"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
	DeletingAt string `db:"deleting_at" json:"deletingAt,omitempty"`
}

// Deleting reports whether a cascade delete has started and not finished.
func (c Category) Deleting() bool { return c.DeletingAt != "" }

// CategoryItem places a FoodItem inside a Category.
type CategoryItem struct {
	CategoryID string `db:"category_id" json:"categoryId"`
	FoodItemID string `db:"food_item_id" json:"foodItemId"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
}

type FoodItem struct {
	ID            string   `db:"id" json:"id"`
	SellerID      string   `db:"seller_id" json:"seller"`
	Name          string   `db:"name" json:"name"`
	Description   string   `db:"description" json:"description"`
	Price         float64  `db:"price" json:"price"`
	PhotoURLsJSON string   `db:"photo_urls_json" json:"-"`
	PhotoURLs     []string `db:"-" json:"photoURLs"`
	Rating        float64  `db:"rating" json:"rating"`
	CreatedAt     string   `db:"created_at" json:"createdAt"`
}

// Placed is a FoodItem together with where it sits in the catalog.
type Placed struct {
	VendorID   string   `json:"vendorId"`
	CategoryID string   `json:"categoryId"`
	Item       FoodItem `json:"item"`
}

// Key identifies a placement uniquely.
func (p Placed) Key() string { return p.VendorID + "/" + p.CategoryID + "/" + p.Item.ID }

// CategoryPage and ItemPage are cursor pages; LastDoc is empty on the final page.
type CategoryPage struct {
	Categories []Category `json:"categories"`
	LastDoc    string     `json:"lastDoc"`
	HasMore    bool       `json:"hasMore"`
}

type ItemPage struct {
	Items        []FoodItem `json:"items"`
	LastDoc      string     `json:"lastDoc"`
	HasMore      bool       `json:"hasMore"`
	CategoryName string     `json:"categoryName"`
}
