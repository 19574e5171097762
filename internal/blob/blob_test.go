package blob

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublicID(t *testing.T) {
	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/menu/noodles.jpg", "menu/noodles", true},
		{"https://res.cloudinary.com/demo/image/upload/noodles.png", "noodles", true},
		{"https://res.cloudinary.com/demo/image/upload/w_300,c_fill/menu/noodles.jpg", "menu/noodles", true},
		{"https://res.cloudinary.com/demo/image/upload/c_thumb/v99/my_folder/x.webp", "my_folder/x", true},
		{"https://example.com/photos/noodles.jpg", "", false},
		{"::not a url", "", false},
	}
	for _, tc := range cases {
		got, ok := PublicID(tc.url)
		if got != tc.want || ok != tc.ok {
			t.Errorf("PublicID(%q) = %q,%v want %q,%v", tc.url, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDeletable(t *testing.T) {
	const base = "https://res.cloudinary.com/demo/image/upload/v1/"
	cases := []struct {
		url    string
		vendor string
		want   bool
	}{
		{base + "stallhub/v-1/noodles.jpg", "v-1", true},
		{base + "stallhub/v-1/sub/noodles.jpg", "v-1", true},
		{base + "stallhub/v-2/noodles.jpg", "v-1", false},
		{base + "stallhub/v-10/noodles.jpg", "v-1", false},
		{base + "samples/food/dessert.jpg", "v-1", false},
		{base + "stallhub/noodles.jpg", "", false},
		{"https://example.com/photos/noodles.jpg", "v-1", true},
	}
	for _, tc := range cases {
		if got := Deletable(tc.url, tc.vendor); got != tc.want {
			t.Errorf("Deletable(%q, %q) = %v want %v", tc.url, tc.vendor, got, tc.want)
		}
	}
	if VendorFolder("v-1") != "stallhub/v-1" {
		t.Fatalf("VendorFolder = %q", VendorFolder("v-1"))
	}
}

func TestNoopRecordsAndFails(t *testing.T) {
	boom := errors.New("boom")
	n := &Noop{Fail: map[string]error{"bad": boom}}
	if err := n.Delete(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if err := n.Delete(context.Background(), "bad"); !errors.Is(err, boom) {
		t.Fatalf("want injected error, got %v", err)
	}
	if d := n.Deleted(); len(d) != 1 || d[0] != "a" {
		t.Fatalf("unexpected deletions %v", d)
	}
	if _, err := n.SignUpload("v1", time.Time{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}
