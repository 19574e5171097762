package presence

import (
	"context"
	"sync"

	"stallhub/internal/domain"
	"stallhub/internal/retry"
)

// Adapter is the typed boundary over a Store. Calls are retried with backoff
// and surface as *domain.UpstreamUnavailable once retries run out. It owns
// the read-through vendorType cache: its own writes update the cache and,
// after Start, a subscription keeps it in step with writes from elsewhere.
type Adapter struct {
	store  Store
	policy retry.Policy

	mu     sync.RWMutex
	types  map[string]string
	loaded bool
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store, policy: retry.Default, types: map[string]string{}}
}

// WithPolicy replaces the retry policy; tests use it to avoid sleeping.
func (a *Adapter) WithPolicy(p retry.Policy) *Adapter {
	a.policy = p
	return a
}

// Store exposes the underlying store for subscriptions.
func (a *Adapter) Store() Store { return a.store }

func (a *Adapter) unavailable(err error) error {
	if err == nil {
		return nil
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return err
	}
	return &domain.UpstreamUnavailable{Store: "presence", Err: err}
}

func (a *Adapter) get(ctx context.Context, path string) (any, error) {
	var v any
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		v, err = a.store.Get(ctx, path)
		return err
	})
	return v, a.unavailable(err)
}

func (a *Adapter) set(ctx context.Context, path string, value any) error {
	return a.unavailable(a.policy.Do(ctx, func(ctx context.Context) error {
		return a.store.Set(ctx, path, value)
	}))
}

func (a *Adapter) remove(ctx context.Context, path string) error {
	return a.unavailable(a.policy.Do(ctx, func(ctx context.Context) error {
		return a.store.Remove(ctx, path)
	}))
}

func (a *Adapter) SetVendorStatus(ctx context.Context, vendorID string, live bool) error {
	return a.set(ctx, VendorStatusPath(vendorID), live)
}

func (a *Adapter) VendorStatus(ctx context.Context) (map[string]bool, error) {
	v, err := a.get(ctx, VendorStatusRoot)
	if err != nil {
		return nil, err
	}
	return AsBoolMap(v), nil
}

func (a *Adapter) SetCategoryStatus(ctx context.Context, vendorID, categoryID string, visible bool) error {
	return a.set(ctx, CategoryStatusPath(vendorID, categoryID), visible)
}

func (a *Adapter) RemoveCategoryStatus(ctx context.Context, vendorID, categoryID string) error {
	return a.remove(ctx, CategoryStatusPath(vendorID, categoryID))
}

// CategoryStatus reads categoryStatus[vendor] in one call.
func (a *Adapter) CategoryStatus(ctx context.Context, vendorID string) (map[string]bool, error) {
	v, err := a.get(ctx, CategoryStatusRoot+"/"+vendorID)
	if err != nil {
		return nil, err
	}
	return AsBoolMap(v), nil
}

func (a *Adapter) AllCategoryStatus(ctx context.Context) (map[string]map[string]bool, error) {
	v, err := a.get(ctx, CategoryStatusRoot)
	if err != nil {
		return nil, err
	}
	return AsNestedBoolMap(v), nil
}

// SetVendorType writes vendorType[vendor] and refreshes the cache entry.
func (a *Adapter) SetVendorType(ctx context.Context, vendorID string, t domain.VendorType) error {
	val := t.PresenceValue()
	var err error
	if val == "" {
		err = a.remove(ctx, VendorTypePath(vendorID))
	} else {
		err = a.set(ctx, VendorTypePath(vendorID), val)
	}
	a.mu.Lock()
	if err != nil || val == "" {
		delete(a.types, vendorID)
	} else {
		a.types[vendorID] = val
	}
	a.mu.Unlock()
	return err
}

// VendorTypes returns the cached vendorType map, loading it on first use.
func (a *Adapter) VendorTypes(ctx context.Context) (map[string]string, error) {
	a.mu.RLock()
	if a.loaded {
		out := make(map[string]string, len(a.types))
		for k, v := range a.types {
			out[k] = v
		}
		a.mu.RUnlock()
		return out, nil
	}
	a.mu.RUnlock()

	v, err := a.get(ctx, VendorTypeRoot)
	if err != nil {
		return nil, err
	}
	types := AsStringMap(v)
	a.replaceTypes(types)
	out := make(map[string]string, len(types))
	for k, t := range types {
		out[k] = t
	}
	return out, nil
}

// VendorType is the read-through lookup for one vendor.
func (a *Adapter) VendorType(ctx context.Context, vendorID string) (string, error) {
	types, err := a.VendorTypes(ctx)
	if err != nil {
		return "", err
	}
	return types[vendorID], nil
}

func (a *Adapter) replaceTypes(types map[string]string) {
	a.mu.Lock()
	a.types = types
	a.loaded = true
	a.mu.Unlock()
}

// Invalidate drops the vendorType cache so the next read goes to the store.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	a.types = map[string]string{}
	a.loaded = false
	a.mu.Unlock()
}

// Start keeps the vendorType cache fresh until ctx is done.
func (a *Adapter) Start(ctx context.Context) error {
	_, err := a.store.Subscribe(ctx, VendorTypeRoot, func(v any) {
		a.replaceTypes(AsStringMap(v))
	})
	return a.unavailable(err)
}

// Snapshot reads all three maps. The reads are not atomic with each other;
// resolvers tolerate any interleaving.
func (a *Adapter) Snapshot(ctx context.Context) (Snapshot, error) {
	vs, err := a.VendorStatus(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	vt, err := a.VendorTypes(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	cs, err := a.AllCategoryStatus(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{VendorStatus: vs, VendorType: vt, CategoryStatus: cs}, nil
}
