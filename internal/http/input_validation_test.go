package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestInputValidation(t *testing.T) {
	a := newTestApp(t)
	catID := a.addCategory(t, "Noodles")
	itemPath := "/categories/" + mamaLee + "/items/" + catID + "/add"

	cases := []struct {
		name, method, path string
		body               any
		field              string
	}{
		{"malformed json", "POST", "/categories/" + mamaLee + "/add", `{"categoryName":`, ""},
		{"missing name", "POST", "/categories/" + mamaLee + "/add", map[string]any{"visibility": true}, "categoryName"},
		{"long name", "POST", "/categories/" + mamaLee + "/add", map[string]any{"categoryName": strings.Repeat("x", 61)}, "categoryName"},
		{"bad photo url", "POST", "/categories/" + mamaLee + "/add", map[string]any{"categoryName": "Soups", "photoURL": "not a url"}, "photoURL"},
		{"zero price", "POST", itemPath, map[string]any{"name": "Laksa", "price": 0, "photoURLs": []string{photoURL}}, "price"},
		{"no photos", "POST", itemPath, map[string]any{"name": "Laksa", "price": 5, "photoURLs": []string{}}, "photoURLs"},
		{"photo not url", "POST", itemPath, map[string]any{"name": "Laksa", "price": 5, "photoURLs": []string{"nope"}}, "photoURLs[0]"},
		{"bad item id", "POST", itemPath, map[string]any{"id": "has space", "name": "Laksa", "price": 5, "photoURLs": []string{photoURL}}, "id"},
		{"status without live", "PUT", "/seller/" + mamaLee + "/status", map[string]any{}, "live"},
		{"negative price update", "PUT", "/seller/" + mamaLee + "/update/" + catID + "/x1", map[string]any{"price": -1}, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := a.do(t, tc.method, tc.path, mamaTok, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("want 400, got %d %s", resp.StatusCode, body)
			}
			var out struct {
				Error string `json:"error"`
				Field string `json:"field"`
			}
			decode(t, body, &out)
			if out.Field != tc.field {
				t.Fatalf("field: want %q, got %q (%s)", tc.field, out.Field, out.Error)
			}
		})
	}
}

func TestSearchQueryValidation(t *testing.T) {
	a := newTestApp(t)
	for _, q := range []string{"", "%20%20", "%3Cscript%3E"} {
		if resp, body := a.do(t, "GET", "/search?q="+q, "", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("q=%q: want 400, got %d %s", q, resp.StatusCode, body)
		}
	}
}

func TestBrowseSelectorValidation(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/browse?view=bogus", "/browse?view=vendor", "/browse?view=category&vendorId=" + mamaLee} {
		if resp, body := a.do(t, "GET", path, "", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d %s", path, resp.StatusCode, body)
		}
	}
}

func TestValidationFailureIsLogged(t *testing.T) {
	a := newTestApp(t)
	entries := captureLogs(t, func() {
		a.do(t, "POST", "/categories/"+mamaLee+"/add", mamaTok, map[string]any{})
	})
	e := findLog(entries, "validation.fail")
	if e == nil || e.Fields["field"] != "categoryName" || e.Fields["action"] != "category.add" {
		t.Fatalf("validation.fail not logged: %+v", entries)
	}
	if findLog(entries, "category.add") != nil {
		t.Fatal("a rejected add must not be audited")
	}
}
