package handlers

import (
	"context"
	"errors"
	"sort"
	"time"

	"stallhub/internal/browse"
	"stallhub/internal/domain"
	applog "stallhub/internal/log"
	"stallhub/internal/presence"
	"stallhub/internal/search"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type BrowseHandler struct {
	Browse  *browse.Resolver
	Vendors search.VendorLookup
	Store   presence.Store
	Resync  time.Duration
}

func selectorFrom(q func(string, ...string) string) (browse.Selector, error) {
	return browse.ParseSelector(q("view"), q("vendorId"), q("categoryId"))
}

// resolve runs the cold path. ok is false when presence is down and the
// caller should answer with an empty, degraded result.
func (h *BrowseHandler) resolve(c *fiber.Ctx, sel browse.Selector) ([]domain.Placed, bool, error) {
	items, err := h.Browse.Resolve(c.UserContext(), sel)
	var up *domain.UpstreamUnavailable
	if errors.As(err, &up) {
		applog.Warn(c, "browse.degraded", err, nil)
		return []domain.Placed{}, false, nil
	}
	return items, true, err
}

// GET /browse
func (h *BrowseHandler) List(c *fiber.Ctx) error {
	sel, err := selectorFrom(c.Query)
	if err != nil {
		return fail(c, "browse", err)
	}
	items, ok, err := h.resolve(c, sel)
	if err != nil {
		return fail(c, "browse", err)
	}
	if !ok {
		return c.JSON(fiber.Map{"items": items, "message": degradedMessage})
	}
	return c.JSON(fiber.Map{"items": items})
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *BrowseHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

type pushMessage struct {
	Type    string          `json:"type"`
	Items   []domain.Placed `json:"items"`
	Message string          `json:"message,omitempty"`
}

// Live serves GET /ws/browse: one browse.Session per connection, pushing
// the full result set every time it changes.
func (h *BrowseHandler) Live() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sel, err := selectorFrom(conn.Query)
		if err != nil {
			_ = conn.WriteJSON(pushMessage{Type: "error", Message: err.Error()})
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			// reads only detect the client going away
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		s := browse.NewSession(h.Browse.Catalog, h.Store, sel, h.Resync)
		err = s.Run(ctx, func(items []domain.Placed) error {
			return conn.WriteJSON(pushMessage{Type: "items", Items: items})
		})
		var up *domain.UpstreamUnavailable
		if errors.As(err, &up) {
			applog.Warn(nil, "browse.live.upstream", err, nil)
			_ = conn.WriteJSON(pushMessage{Type: "error", Message: degradedMessage})
		}
	})
}

type menuItem struct {
	Name        string
	Description string
	Price       float64
	Photo       string
}

type menuVendor struct {
	Name     string
	Landmark string
	Items    []menuItem
}

// GET /menu renders the visible catalog grouped by vendor.
func (h *BrowseHandler) Menu(c *fiber.Ctx) error {
	sel, err := selectorFrom(c.Query)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, "notfound", fiber.Map{"Message": err.Error()})
	}
	items, ok, err := h.resolve(c, sel)
	if err != nil {
		return err
	}
	data := fiber.Map{"Title": "Open now"}
	if !ok {
		data["Message"] = degradedMessage
	}

	byVendor := map[string][]menuItem{}
	seen := map[string]bool{}
	var ids []string
	for _, p := range items {
		if _, ok := byVendor[p.VendorID]; !ok {
			ids = append(ids, p.VendorID)
		}
		// an item placed in two categories shows once per vendor
		if seen[p.VendorID+"/"+p.Item.ID] {
			continue
		}
		seen[p.VendorID+"/"+p.Item.ID] = true
		mi := menuItem{Name: p.Item.Name, Description: p.Item.Description, Price: p.Item.Price}
		if len(p.Item.PhotoURLs) > 0 {
			mi.Photo = p.Item.PhotoURLs[0]
		}
		byVendor[p.VendorID] = append(byVendor[p.VendorID], mi)
	}
	vendors, err := h.Vendors.ByIDs(c.UserContext(), ids)
	if err != nil {
		return err
	}
	sort.Strings(ids)
	var out []menuVendor
	for _, id := range ids {
		v, ok := vendors[id]
		if !ok {
			continue
		}
		out = append(out, menuVendor{Name: v.Name, Landmark: v.Landmark, Items: byVendor[id]})
	}
	data["Vendors"] = out
	return render(c, "menu", data)
}
