package search_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"stallhub/internal/domain"
	"stallhub/internal/presence"
	"stallhub/internal/search"
)

type catalog struct {
	cats  map[string][]domain.Category
	items map[string][]domain.FoodItem
	fail  map[string]bool
}

func (c *catalog) Categories(_ context.Context, vendorID string) ([]domain.Category, error) {
	if c.fail[vendorID] {
		return nil, errors.New("timeout")
	}
	return c.cats[vendorID], nil
}

func (c *catalog) Category(context.Context, string, string) (*domain.Category, error) {
	return nil, nil
}

func (c *catalog) Items(_ context.Context, categoryID string) ([]domain.FoodItem, error) {
	return c.items[categoryID], nil
}

type vendors map[string]domain.Vendor

func (v vendors) ByIDs(_ context.Context, ids []string) (map[string]domain.Vendor, error) {
	out := map[string]domain.Vendor{}
	for _, id := range ids {
		if x, ok := v[id]; ok {
			out[id] = x
		}
	}
	return out, nil
}

func setup(t *testing.T) (*search.Resolver, *presence.MemoryStore) {
	t.Helper()
	cat := &catalog{
		cats: map[string][]domain.Category{
			"A": {{ID: "a-mains", VendorID: "A", Name: "Mains"}, {ID: "a-curry", VendorID: "A", Name: "Curry corner"}},
			"B": {{ID: "b-drinks", VendorID: "B", Name: "Drinks"}},
			"C": {{ID: "c-hidden", VendorID: "C", Name: "Curry"}},
		},
		items: map[string][]domain.FoodItem{
			"a-mains":  {{ID: "rice", Name: "Fried rice"}, {ID: "laksa", Name: "Laksa", Description: "spicy curry broth"}},
			"a-curry":  {{ID: "roti", Name: "Roti"}, {ID: "curry-puff", Name: "Curry puff"}},
			"b-drinks": {{ID: "teh", Name: "Teh tarik"}},
			"c-hidden": {{ID: "c1", Name: "Curry fish"}},
		},
		fail: map[string]bool{},
	}
	vs := vendors{
		"A": {ID: "A", Name: "Auntie's", Description: "Home cooking"},
		"B": {ID: "B", Name: "Curry Bros", Description: "drinks too"},
		"C": {ID: "C", Name: "Offline curry"},
	}
	store := presence.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, presence.VendorStatusPath("A"), true)
	_ = store.Set(ctx, presence.VendorStatusPath("B"), true)
	_ = store.Set(ctx, presence.VendorStatusPath("C"), false)
	return search.NewResolver(cat, vs, presence.NewAdapter(store)), store
}

func TestSearchRanksByMatchLocality(t *testing.T) {
	r, _ := setup(t)
	got, err := r.Search(context.Background(), "  CURRY ")
	if err != nil {
		t.Fatal(err)
	}
	// name, description, category name, vendor name
	want := []string{"curry-puff", "laksa", "roti", "teh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSearchRespectsVisibility(t *testing.T) {
	r, store := setup(t)
	ctx := context.Background()
	_ = store.Set(ctx, presence.CategoryStatusPath("A", "a-curry"), false)
	got, _ := r.Search(ctx, "curry")
	if !reflect.DeepEqual(got, []string{"laksa", "teh"}) {
		t.Fatalf("hidden category leaked: %v", got)
	}
	// no entry means visible
	_ = store.Remove(ctx, presence.CategoryStatusPath("A", "a-curry"))
	got, _ = r.Search(ctx, "roti")
	if !reflect.DeepEqual(got, []string{"roti"}) {
		t.Fatalf("default-visible category missing: %v", got)
	}
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	r, _ := setup(t)
	_, err := r.Search(context.Background(), "   ")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestMatchPriority(t *testing.T) {
	v := domain.Vendor{Name: "Noodle House", Description: "since 1990", Landmark: "opposite the fountain"}
	c := domain.Category{Name: "Soups"}
	it := domain.FoodItem{Name: "Wonton", Description: "pork dumplings"}
	cases := map[string]int{
		"wonton":   search.MatchItemName,
		"pork":     search.MatchItemDescription,
		"soup":     search.MatchCategoryName,
		"noodle":   search.MatchVendorName,
		"1990":     search.MatchVendorDescription,
		"fountain": search.MatchVendorLandmark,
		"pizza":    search.NoMatch,
	}
	for q, want := range cases {
		if got := search.MatchPriority(q, it, c, v); got != want {
			t.Errorf("%q: got %d want %d", q, got, want)
		}
	}
}
