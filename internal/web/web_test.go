package web

import (
	"bytes"
	"strings"
	"testing"
)

func TestEngineRendersMenu(t *testing.T) {
	e := Engine()
	if err := e.Load(); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	data := map[string]any{
		"Title": "Open now",
		"Vendors": []map[string]any{{
			"Name":  "Mama Lee's",
			"Items": []map[string]any{{"Name": "Dumplings", "Price": 6.5}},
		}},
	}
	if err := e.Render(&buf, "menu", data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Dumplings") || !strings.Contains(out, "$6.50") {
		t.Fatalf("unexpected page: %s", out)
	}
}
