package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"stallhub/internal/domain"
)

func TestClassifyVendor(t *testing.T) {
	cases := []struct {
		name   string
		cats   []string
		want   domain.VendorType
		wantOK bool
	}{
		{"none", nil, domain.VendorUnclassified, false},
		{"stall", []string{"Stall"}, domain.VendorStall, true},
		{"padded stall", []string{"  stall "}, domain.VendorStall, true},
		{"cafe", []string{"Burgers", "Drinks"}, domain.VendorCafe, true},
		{"stalls is not the marker", []string{"Stalls"}, domain.VendorCafe, true},
	}
	for _, tc := range cases {
		var cats []domain.Category
		for _, n := range tc.cats {
			cats = append(cats, domain.Category{Name: n})
		}
		got, ok := domain.ClassifyVendor(cats)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("%s: got (%q,%v) want (%q,%v)", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestReservedForStalls(t *testing.T) {
	for _, n := range []string{"stall", "Stalls", "My STALL menu"} {
		if !domain.ReservedForStalls(n) {
			t.Errorf("%q should be reserved", n)
		}
	}
	if domain.ReservedForStalls("Burgers") {
		t.Error("Burgers should not be reserved")
	}
}

func TestPresenceSpelling(t *testing.T) {
	if domain.VendorCafe.PresenceValue() != "shop" || domain.VendorStall.PresenceValue() != "stall" {
		t.Fatal("unexpected presence spelling")
	}
	if domain.VendorTypeFromPresence("shop") != domain.VendorCafe {
		t.Fatal("shop should map to cafe")
	}
}

func TestErrorsMatchWithAs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", domain.NotFound("category", "c1"))
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "c1" {
		t.Fatalf("NotFoundError not matched: %v", err)
	}

	pf := &domain.PartialFailureError{Op: "delete category", Succeeded: []string{"a"},
		Failed: map[string]error{"c": errors.New("x"), "b": errors.New("y")}}
	if ids := pf.FailedIDs(); len(ids) != 2 || ids[0] != "b" {
		t.Fatalf("failed ids not sorted: %v", ids)
	}

	up := &domain.UpstreamUnavailable{Store: "presence", Err: errors.New("dial")}
	if errors.Unwrap(up).Error() != "dial" {
		t.Fatal("UpstreamUnavailable should unwrap")
	}
}
