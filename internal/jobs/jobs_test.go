package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stallhub/internal/services"

	"github.com/hibiken/asynq"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (services.SweepReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return services.SweepReport{VendorsChecked: 2}, c.err
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestProcessTaskRunsSweep(t *testing.T) {
	s := &countingSweeper{}
	task, err := NewReconcileTask("schedule")
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskReconcile {
		t.Fatalf("task type %q", task.Type())
	}
	if err := NewReconcileProcessor(s).ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if s.count() != 1 {
		t.Fatalf("sweeps: %d", s.count())
	}

	s.err = errors.New("db locked")
	if err := NewReconcileProcessor(s).ProcessTask(context.Background(), task); !errors.Is(err, s.err) {
		t.Fatalf("sweep error should be returned for retry, got %v", err)
	}
}

func TestProcessTaskBadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskReconcile, []byte("{"))
	err := NewReconcileProcessor(&countingSweeper{}).ProcessTask(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
}

func TestRunLocalSweepsOnInterval(t *testing.T) {
	s := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunLocal(ctx, 5*time.Millisecond, s)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for s.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps", s.count())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunLocal did not stop")
	}
}

func TestRunLocalWithoutIntervalSweepsOnce(t *testing.T) {
	s := &countingSweeper{}
	RunLocal(context.Background(), 0, s)
	if s.count() != 1 {
		t.Fatalf("sweeps: %d", s.count())
	}
}
