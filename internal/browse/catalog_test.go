package browse_test

import (
	"context"
	"testing"

	"stallhub/internal/browse"
	"stallhub/internal/domain"
	"stallhub/internal/repos"
)

func TestRepoCatalog_ItemsSkipsMissingCanonicalRows(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	items := repos.NewItemRepo(db)
	cat := browse.NewRepoCatalog(repos.NewCategoryRepo(db), items)

	for _, id := range []string{"b", "a", "c"} {
		it := domain.FoodItem{ID: id, SellerID: "v1", Name: id, Price: 2, PhotoURLs: []string{"https://img.test/" + id + ".jpg"}}
		if _, err := items.CreatePlaced(ctx, it, "c1"); err != nil {
			t.Fatal(err)
		}
	}
	// leave a dangling placement behind
	if _, err := db.ExecContext(ctx, `DELETE FROM food_items WHERE id='b'`); err != nil {
		t.Fatal(err)
	}

	got, err := cat.Items(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected items %+v", got)
	}
	if len(got[0].PhotoURLs) != 1 || got[0].PhotoURLs[0] != "https://img.test/a.jpg" {
		t.Fatalf("photos not decoded: %+v", got[0])
	}
	if p, _ := items.Placements(ctx, "c1"); len(p) != 3 {
		t.Fatalf("placements touched: %v", p)
	}
}
