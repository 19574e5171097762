package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	applog "stallhub/internal/log"
	"stallhub/internal/services"

	"github.com/hibiken/asynq"
)

// Sweeper is the part of services.Sweeper the jobs need.
type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepReport, error)
}

type ReconcileProcessor struct {
	sweeper Sweeper
}

func NewReconcileProcessor(s Sweeper) *ReconcileProcessor {
	return &ReconcileProcessor{sweeper: s}
}

func (p *ReconcileProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.run(ctx, payload.Trigger)
}

func (p *ReconcileProcessor) run(ctx context.Context, trigger string) error {
	start := time.Now()
	rep, err := p.sweeper.Sweep(ctx)
	fields := map[string]any{"trigger": trigger, "took_ms": time.Since(start).Milliseconds(), "report": rep}
	if err != nil {
		applog.Warn(nil, "jobs.reconcile.fail", err, fields)
		return err
	}
	applog.Info(nil, "jobs.reconcile", fields)
	return nil
}
