package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	applog "stallhub/internal/log"
)

const (
	redisKeyPrefix = "presence:"
	redisChannel   = "presence:changes"

	defaultPrimeRetry = 500 * time.Millisecond
)

// RedisStore keeps every leaf of the tree as its own key ("presence:" + path,
// JSON value) and announces each mutated path on a pub/sub channel. A single
// listener goroutine re-reads affected subscriptions, so deliveries for one
// subscription keep the order in which Redis published them.
type RedisStore struct {
	rdb *redis.Client

	mu     sync.Mutex
	subs   map[int]*redisSub
	nextID int

	startOnce sync.Once
	startErr  error
	pubsub    *redis.PubSub
	prime     chan *redisSub
	cancel    context.CancelFunc
	done      chan struct{}

	// primeRetry is the wait before a failed first delivery is read again.
	primeRetry time.Duration
}

type redisSub struct {
	id     int
	parts  []string
	fn     func(any)
	last   any
	primed bool
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb:   rdb,
		subs:  map[int]*redisSub{},
		prime: make(chan *redisSub, 16),
		done:  make(chan struct{}),

		primeRetry: defaultPrimeRetry,
	}
}

func redisKey(parts []string) string { return redisKeyPrefix + joinPath(parts) }

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func (s *RedisStore) descendants(ctx context.Context, parts []string) ([]string, error) {
	match := redisKeyPrefix + "*"
	if len(parts) > 0 {
		match = escapeGlob(redisKey(parts)) + "/*"
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, match, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (s *RedisStore) Get(ctx context.Context, path string) (any, error) {
	return s.get(ctx, splitPath(path))
}

func (s *RedisStore) get(ctx context.Context, parts []string) (any, error) {
	if len(parts) > 0 {
		raw, err := s.rdb.Get(ctx, redisKey(parts)).Result()
		if err == nil {
			return decodeLeaf(raw)
		}
		if err != redis.Nil {
			return nil, err
		}
	}
	keys, err := s.descendants(ctx, parts)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	var root any
	for i, k := range keys {
		raw, ok := vals[i].(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		leaf, err := decodeLeaf(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		rel := splitPath(strings.TrimPrefix(k, redisKey(parts)))
		root = setAt(root, rel, leaf)
	}
	return root, nil
}

func decodeLeaf(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func flatten(parts []string, v any, out map[string]string) error {
	if m, ok := v.(map[string]any); ok {
		for k, child := range m {
			if err := flatten(append(append([]string{}, parts...), k), child, out); err != nil {
				return err
			}
		}
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	out[redisKey(parts)] = string(b)
	return nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	parts := splitPath(path)
	value = normalize(value)
	if value == nil {
		return s.Remove(ctx, path)
	}
	leaves := map[string]string{}
	if err := flatten(parts, value, leaves); err != nil {
		return err
	}
	stale, err := s.descendants(ctx, parts)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		// A leaf written below an existing leaf replaces it.
		for i := 1; i < len(parts); i++ {
			p.Del(ctx, redisKey(parts[:i]))
		}
		if _, isBranch := value.(map[string]any); isBranch && len(parts) > 0 {
			p.Del(ctx, redisKey(parts))
		}
		for _, k := range stale {
			if _, keep := leaves[k]; !keep {
				p.Del(ctx, k)
			}
		}
		for k, v := range leaves {
			p.Set(ctx, k, v, 0)
		}
		p.Publish(ctx, redisChannel, joinPath(parts))
		return nil
	})
	return err
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	parts := splitPath(path)
	keys, err := s.descendants(ctx, parts)
	if err != nil {
		return err
	}
	if len(parts) > 0 {
		keys = append(keys, redisKey(parts))
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(keys) > 0 {
			p.Del(ctx, keys...)
		}
		p.Publish(ctx, redisChannel, joinPath(parts))
		return nil
	})
	return err
}

func (s *RedisStore) start() error {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.pubsub = s.rdb.Subscribe(ctx, redisChannel)
		if _, err := s.pubsub.Receive(ctx); err != nil {
			s.startErr = err
			cancel()
			close(s.done)
			return
		}
		go s.listen(ctx)
	})
	return s.startErr
}

// listen is the only goroutine that delivers values. Priming a new
// subscription goes through it too, so a subscriber never sees an older value
// after a newer one.
func (s *RedisStore) listen(ctx context.Context) {
	defer close(s.done)
	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-s.prime:
			s.refresh(ctx, sub)
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			changed := splitPath(msg.Payload)
			s.mu.Lock()
			var hit []*redisSub
			for _, sub := range s.subs {
				if related(sub.parts, changed) {
					hit = append(hit, sub)
				}
			}
			s.mu.Unlock()
			for _, sub := range hit {
				s.refresh(ctx, sub)
			}
		}
	}
}

func (s *RedisStore) refresh(ctx context.Context, sub *redisSub) {
	v, err := s.get(ctx, sub.parts)
	if err != nil {
		applog.Warn(nil, "presence.refresh.failed", err, map[string]any{"path": joinPath(sub.parts), "primed": sub.primed})
		if !sub.primed {
			s.requeue(ctx, sub)
		}
		return // a primed subscription re-reads on the next publish
	}
	if sub.primed && equal(sub.last, v) {
		return
	}
	sub.primed = true
	sub.last = clone(v)
	sub.fn(v)
}

// requeue hands an unprimed subscription back to the listener after
// primeRetry, unless it was cancelled meanwhile.
func (s *RedisStore) requeue(ctx context.Context, sub *redisSub) {
	time.AfterFunc(s.primeRetry, func() {
		s.mu.Lock()
		_, live := s.subs[sub.id]
		s.mu.Unlock()
		if !live {
			return
		}
		select {
		case s.prime <- sub:
		case <-ctx.Done():
		}
	})
}

// Subscribe reads the path once so connection problems surface to the
// caller, then hands the subscription to the listener for its first delivery.
func (s *RedisStore) Subscribe(ctx context.Context, path string, onChange func(any)) (func(), error) {
	if err := s.start(); err != nil {
		return nil, err
	}
	parts := splitPath(path)
	if _, err := s.get(ctx, parts); err != nil {
		return nil, err
	}
	sub := &redisSub{parts: parts, fn: onChange}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	sub.id = id
	s.subs[id] = sub
	s.mu.Unlock()

	select {
	case s.prime <- sub:
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		return nil, ctx.Err()
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

// Close stops the change listener. The redis client stays open.
func (s *RedisStore) Close() error {
	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	s.cancel()
	<-s.done
	return err
}
