package presence

import (
	"context"
	"sync"
)

type subscriber struct {
	id    int
	parts []string
	fn    func(any)
}

// MemoryStore keeps the whole tree in process. Mutations and deliveries run
// under one lock so every subscriber sees changes in apply order.
type MemoryStore struct {
	mu     sync.Mutex
	root   any
	subs   map[int]*subscriber
	nextID int

	// FailHook, when set, can inject an error for an operation ("get", "set",
	// "remove", "subscribe") on a path. Set it before the store is shared.
	FailHook func(op, path string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: map[int]*subscriber{}}
}

func (s *MemoryStore) fail(op, path string) error {
	if s.FailHook == nil {
		return nil
	}
	return s.FailHook(op, path)
}

func (s *MemoryStore) Get(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fail("get", path); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(lookup(s.root, splitPath(path))), nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail("set", path); err != nil {
		return err
	}
	s.apply(splitPath(path), normalize(clone(value)))
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail("remove", path); err != nil {
		return err
	}
	s.apply(splitPath(path), nil)
	return nil
}

func (s *MemoryStore) apply(parts []string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := make(map[int]any)
	for id, sub := range s.subs {
		if related(sub.parts, parts) {
			before[id] = clone(lookup(s.root, sub.parts))
		}
	}
	s.root = setAt(s.root, parts, value)
	for id, old := range before {
		sub := s.subs[id]
		now := lookup(s.root, sub.parts)
		if !equal(old, now) {
			sub.fn(clone(now))
		}
	}
}

// Subscribe registers onChange and delivers the current value immediately.
// The subscription ends when unsubscribe is called or ctx is done.
func (s *MemoryStore) Subscribe(ctx context.Context, path string, onChange func(any)) (func(), error) {
	if err := s.fail("subscribe", path); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.nextID++
	sub := &subscriber{id: s.nextID, parts: splitPath(path), fn: onChange}
	s.subs[sub.id] = sub
	onChange(clone(lookup(s.root, sub.parts)))
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

// Subscribers returns the number of live subscriptions.
func (s *MemoryStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
