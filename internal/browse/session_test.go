package browse_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"stallhub/internal/browse"
	"stallhub/internal/domain"
	"stallhub/internal/presence"
)

func next(t *testing.T, ch <-chan []domain.Placed) []string {
	t.Helper()
	select {
	case items := <-ch:
		return keys(items)
	case <-time.After(2 * time.Second):
		t.Fatal("no push from session")
	}
	return nil
}

func TestSessionPushesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := presence.NewMemoryStore()
	cat := newFakeCatalog()
	cat.addCategory("V1", "C1", "F1")
	_ = store.Set(ctx, presence.CategoryStatusPath("V1", "C1"), true)

	pushes := make(chan []domain.Placed, 16)
	s := browse.NewSession(cat, store, browse.Selector{Kind: browse.ViewAll}, 0)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(items []domain.Placed) error {
			pushes <- items
			return nil
		})
	}()

	if got := next(t, pushes); len(got) != 0 {
		t.Fatalf("initial push should be empty, got %v", got)
	}
	_ = store.Set(ctx, presence.VendorStatusPath("V1"), true)
	if got := next(t, pushes); !reflect.DeepEqual(got, []string{"V1/C1/F1"}) {
		t.Fatalf("after going live got %v", got)
	}
	_ = store.Set(ctx, presence.CategoryStatusPath("V1", "C1"), false)
	if got := next(t, pushes); len(got) != 0 {
		t.Fatalf("after hiding got %v", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on cancel")
	}
	if store.Subscribers() != 0 {
		// unsubscribe runs from context.AfterFunc; give it a moment
		time.Sleep(50 * time.Millisecond)
		if n := store.Subscribers(); n != 0 {
			t.Fatalf("%d subscriptions left after cancel", n)
		}
	}
}

func TestSessionStopsOnSinkError(t *testing.T) {
	store := presence.NewMemoryStore()
	boom := errors.New("socket closed")
	s := browse.NewSession(newFakeCatalog(), store, browse.Selector{Kind: browse.ViewAll}, 0)
	err := s.Run(context.Background(), func([]domain.Placed) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want sink error, got %v", err)
	}
}

func TestSessionSubscribeFailure(t *testing.T) {
	store := presence.NewMemoryStore()
	store.FailHook = func(op, path string) error {
		if op == "subscribe" {
			return errors.New("refused")
		}
		return nil
	}
	s := browse.NewSession(newFakeCatalog(), store, browse.Selector{Kind: browse.ViewAll}, 0)
	var up *domain.UpstreamUnavailable
	if err := s.Run(context.Background(), func([]domain.Placed) error { return nil }); !errors.As(err, &up) {
		t.Fatalf("want UpstreamUnavailable, got %v", err)
	}
}

func TestSessionResyncPicksUpItemEdits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := presence.NewMemoryStore()
	cat := newFakeCatalog()
	cat.addCategory("V1", "C1", "F1")
	_ = store.Set(ctx, presence.VendorStatusPath("V1"), true)

	pushes := make(chan []domain.Placed, 64)
	s := browse.NewSession(cat, store, browse.Selector{Kind: browse.ViewAll}, 20*time.Millisecond)
	go func() {
		_ = s.Run(ctx, func(items []domain.Placed) error {
			select {
			case pushes <- items:
			case <-ctx.Done():
			}
			return nil
		})
	}()
	if got := next(t, pushes); !reflect.DeepEqual(got, []string{"V1/C1/F1"}) {
		t.Fatalf("initial push %v", got)
	}
	// an item edit never touches presence; only the resync can surface it
	cat.addItem("C1", "F2")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case items := <-pushes:
			if reflect.DeepEqual(keys(items), []string{"V1/C1/F1", "V1/C1/F2"}) {
				return
			}
		case <-deadline:
			t.Fatal("resync never delivered the new item")
		}
	}
}
