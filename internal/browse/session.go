package browse

import (
	"context"
	"time"

	"stallhub/internal/domain"
	"stallhub/internal/presence"
)

// Sink receives every new result set of a session.
type Sink func(items []domain.Placed) error

// Session drives one viewer's View from presence subscriptions. All work
// happens on the goroutine that calls Run.
type Session struct {
	View  *View
	Store presence.Store
	// Resync, when positive, forces a cold reload at that interval so item
	// edits that do not touch presence still reach the viewer.
	Resync time.Duration
}

func NewSession(cat Catalog, store presence.Store, sel Selector, resync time.Duration) *Session {
	return &Session{View: NewView(cat, sel), Store: store, Resync: resync}
}

// Run blocks until ctx is done or the sink fails. The first push happens
// once all three presence roots have delivered their initial value.
func (s *Session) Run(ctx context.Context, sink Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	roots := []string{presence.VendorStatusRoot, presence.VendorTypeRoot, presence.CategoryStatusRoot}
	chans := make([]<-chan any, len(roots))
	for i, root := range roots {
		ch, err := presence.Watch(ctx, s.Store, root)
		if err != nil {
			return &domain.UpstreamUnavailable{Store: "presence", Err: err}
		}
		chans[i] = ch
	}

	var tick <-chan time.Time
	if s.Resync > 0 {
		t := time.NewTicker(s.Resync)
		defer t.Stop()
		tick = t.C
	}

	var snap presence.Snapshot
	seen := [3]bool{}
	ready := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-chans[0]:
			snap.VendorStatus = presence.AsBoolMap(v)
			seen[0] = true
		case v := <-chans[1]:
			snap.VendorType = presence.AsStringMap(v)
			seen[1] = true
		case v := <-chans[2]:
			snap.CategoryStatus = presence.AsNestedBoolMap(v)
			seen[2] = true
		case <-tick:
			if !ready {
				continue
			}
			s.View.Reset(ctx, snap)
			if err := sink(s.View.Items()); err != nil {
				return err
			}
			continue
		}
		if !ready {
			if !seen[0] || !seen[1] || !seen[2] {
				continue
			}
			ready = true
			s.View.Apply(ctx, snap)
			if err := sink(s.View.Items()); err != nil {
				return err
			}
			continue
		}
		if d := s.View.Apply(ctx, snap); d.Empty() {
			continue
		}
		if err := sink(s.View.Items()); err != nil {
			return err
		}
	}
}
