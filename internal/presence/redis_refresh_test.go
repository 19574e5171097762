package presence

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// unreachableStore points at a port nothing listens on, so every read fails.
func unreachableStore(t *testing.T) *RedisStore {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisStore(rdb)
	s.primeRetry = time.Millisecond
	return s
}

func (s *RedisStore) addSub(t *testing.T, path string) *redisSub {
	t.Helper()
	sub := &redisSub{parts: splitPath(path), fn: func(any) { t.Error("nothing should be delivered") }}
	s.mu.Lock()
	s.nextID++
	sub.id = s.nextID
	s.subs[sub.id] = sub
	s.mu.Unlock()
	return sub
}

func TestRefresh_FailedFirstReadIsRetriedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	s := unreachableStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.addSub(t, "vendorStatus/v1")

	s.refresh(ctx, sub)
	select {
	case got := <-s.prime:
		if got != sub {
			t.Fatal("a different subscription was queued")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failed first read was not queued again")
	}
	out := buf.String()
	if !strings.Contains(out, `"action":"presence.refresh.failed"`) || !strings.Contains(out, "vendorStatus/v1") {
		t.Fatalf("missing warn line: %s", out)
	}
}

func TestRefresh_NoRetryOnceCancelledOrPrimed(t *testing.T) {
	log.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	s := unreachableStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gone := s.addSub(t, "vendorStatus/v1")
	s.mu.Lock()
	delete(s.subs, gone.id)
	s.mu.Unlock()
	s.refresh(ctx, gone)

	primed := s.addSub(t, "vendorStatus/v2")
	primed.primed = true
	s.refresh(ctx, primed)

	select {
	case got := <-s.prime:
		t.Fatalf("unexpected retry for %v", got.parts)
	case <-time.After(100 * time.Millisecond):
	}
}
