package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"stallhub/internal/blob"
	"stallhub/internal/config"
	"stallhub/internal/http/handlers"
	"stallhub/internal/presence"
	"stallhub/internal/repos"
	"stallhub/internal/retry"
	"stallhub/internal/web"
)

const (
	mamaLee  = "v-mama-lee"
	mamaTok  = "demo-mama-lee"
	beanTok  = "demo-bean-there"
	photoURL = "https://res.cloudinary.com/demo/image/upload/v1/stallhub/v-mama-lee/noodles.jpg"
)

type testApp struct {
	app   *fiber.App
	deps  *handlers.Deps
	store *presence.MemoryStore
	blobs *blob.Noop
}

// newTestApp wires the real routes over an in-memory database seeded with
// the demo vendors and a memory presence store.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", OrphanGrace: time.Minute}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := presence.NewMemoryStore()
	p := presence.NewAdapter(store).WithPolicy(retry.Policy{Attempts: 2, Base: time.Millisecond})
	blobs := &blob.Noop{}
	deps := handlers.NewDeps(db, cfg, p, blobs)

	app := fiber.New(fiber.Config{Views: web.Engine(), ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB
	app.Use(requestid.New())
	handlers.Routes(app, deps)
	return &testApp{app: app, deps: deps, store: store, blobs: blobs}
}

// do sends a JSON request; token may be empty.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func decode(t *testing.T, raw []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

// addCategory creates a category for mamaLee and returns its id.
func (a *testApp) addCategory(t *testing.T, name string) string {
	t.Helper()
	resp, body := a.do(t, "POST", "/categories/"+mamaLee+"/add", mamaTok, map[string]any{"categoryName": name})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("add category: %d %s", resp.StatusCode, body)
	}
	var c struct{ ID string }
	decode(t, body, &c)
	return c.ID
}

func (a *testApp) addItem(t *testing.T, categoryID, name string, photos ...string) string {
	t.Helper()
	if len(photos) == 0 {
		photos = []string{photoURL}
	}
	resp, body := a.do(t, "POST", "/categories/"+mamaLee+"/items/"+categoryID+"/add", mamaTok, map[string]any{
		"name": name, "description": "house special", "price": 6.5, "photoURLs": photos,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("add item: %d %s", resp.StatusCode, body)
	}
	var it struct{ ID string }
	decode(t, body, &it)
	return it.ID
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
