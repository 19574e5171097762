package handlers_test

import (
	"net/http"
	"testing"
)

func TestSellerRoutesRequireBearerToken(t *testing.T) {
	a := newTestApp(t)
	body := map[string]any{"categoryName": "Noodles"}

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp, _ = a.do(t, "POST", "/categories/"+mamaLee+"/add", "", body)
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: want 401, got %d", resp.StatusCode)
	}
	e := findLog(entries, "access.denied.seller")
	if e == nil || e.Fields["reason"] != "missing_token" {
		t.Fatalf("missing access.denied.seller log, got %+v", entries)
	}

	// another vendor's token does not open this vendor's catalog
	entries = captureLogs(t, func() {
		resp, _ = a.do(t, "POST", "/categories/"+mamaLee+"/add", beanTok, body)
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign token: want 403, got %d", resp.StatusCode)
	}
	if e := findLog(entries, "access.denied.seller"); e == nil || e.Fields["reason"] != "bad_token" {
		t.Fatalf("want bad_token denial, got %+v", entries)
	}

	if resp, _ = a.do(t, "POST", "/categories/"+mamaLee+"/add", mamaTok, body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("own token: want 201, got %d", resp.StatusCode)
	}
}

func TestUnknownVendorIsDenied(t *testing.T) {
	a := newTestApp(t)
	resp, _ := a.do(t, "PUT", "/seller/v-nobody/status", mamaTok, map[string]any{"live": true})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403 for unknown vendor, got %d", resp.StatusCode)
	}
}

func TestReadRoutesArePublic(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/categories/" + mamaLee, "/browse", "/search?q=noodle", "/healthz"} {
		if resp, body := a.do(t, "GET", path, "", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: %d %s", path, resp.StatusCode, body)
		}
	}
}
