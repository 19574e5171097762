package jobs

import (
	"context"
	"fmt"
	"time"

	applog "stallhub/internal/log"

	"github.com/hibiken/asynq"
)

// RunLocal sweeps once at start and then every interval until ctx is done.
// Used when there is no Redis to host an asynq queue.
func RunLocal(ctx context.Context, interval time.Duration, s Sweeper) {
	p := NewReconcileProcessor(s)
	_ = p.run(ctx, "startup")
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = p.run(ctx, "schedule")
		}
	}
}

// Worker owns the asynq scheduler that enqueues the sweep and the server
// that runs it.
type Worker struct {
	scheduler *asynq.Scheduler
	server    *asynq.Server
	mux       *asynq.ServeMux
	client    *asynq.Client
}

func NewWorker(redisOpt asynq.RedisClientOpt, interval time.Duration, s Sweeper) (*Worker, error) {
	task, err := NewReconcileTask("schedule")
	if err != nil {
		return nil, err
	}
	sched := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := sched.Register(fmt.Sprintf("@every %s", interval), task); err != nil {
		return nil, fmt.Errorf("register reconcile: %w", err)
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1, // sweeps must not overlap
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return time.Duration(n) * 30 * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			applog.Error(nil, "jobs.task.error", err, map[string]any{"task": t.Type()})
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskReconcile, NewReconcileProcessor(s))

	return &Worker{scheduler: sched, server: srv, mux: mux, client: asynq.NewClient(redisOpt)}, nil
}

// Start enqueues one sweep right away and starts both loops without blocking.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return err
	}
	task, err := NewReconcileTask("startup")
	if err != nil {
		return err
	}
	if _, err := w.client.Enqueue(task); err != nil {
		applog.Warn(nil, "jobs.enqueue.fail", err, nil)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	_ = w.client.Close()
}
