// Package presence is the low-latency visibility layer: vendor online flags,
// cached vendor types and per-category visibility. It is a cache over the
// durable catalog and is authoritative only for visibility.
package presence

import (
	"context"
	"reflect"
	"strings"
)

// Store is a reactive tree-shaped key/value store addressed by slash paths
// such as "categoryStatus/v1/c1". Values are bool, string, float64 or
// map[string]any branches; a nil value means the path is absent.
//
// Subscribe calls onChange with the full current value at path once on
// subscription and again after every change at, above or below it. Calls for
// one subscription are never concurrent and arrive in store-apply order.
// onChange must not block and must not call back into the store.
type Store interface {
	Get(ctx context.Context, path string) (any, error)
	Set(ctx context.Context, path string, value any) error
	Remove(ctx context.Context, path string) error
	Subscribe(ctx context.Context, path string, onChange func(value any)) (unsubscribe func(), err error)
}

const (
	VendorStatusRoot   = "vendorStatus"
	VendorTypeRoot     = "vendorType"
	CategoryStatusRoot = "categoryStatus"
)

func VendorStatusPath(vendorID string) string { return VendorStatusRoot + "/" + vendorID }
func VendorTypePath(vendorID string) string   { return VendorTypeRoot + "/" + vendorID }
func CategoryStatusPath(vendorID, categoryID string) string {
	return CategoryStatusRoot + "/" + vendorID + "/" + categoryID
}

func splitPath(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinPath(parts []string) string { return strings.Join(parts, "/") }

// related reports whether a change at b can alter the value observed at a.
func related(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalize turns typed maps into map[string]any and drops empty branches.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if n := normalize(child); n != nil {
				out[k] = n
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case map[string]bool:
		out := make(map[string]any, len(t))
		for k, b := range t {
			out[k] = b
		}
		return normalize(out)
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return normalize(out)
	case map[string]map[string]bool:
		out := make(map[string]any, len(t))
		for k, m := range t {
			out[k] = m
		}
		return normalize(out)
	case int:
		return float64(t)
	}
	return v
}

func clone(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, child := range m {
		out[k] = clone(child)
	}
	return out
}

func lookup(root any, parts []string) any {
	cur := root
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

// setAt returns root with value placed at parts. A nil value removes the path
// and prunes branches left empty.
func setAt(root any, parts []string, value any) any {
	if len(parts) == 0 {
		return value
	}
	m, ok := root.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	child := setAt(m[parts[0]], parts[1:], value)
	if child == nil {
		delete(m, parts[0])
	} else {
		m[parts[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func equal(a, b any) bool { return reflect.DeepEqual(a, b) }
