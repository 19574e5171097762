// Package jobs schedules the reconcile sweep: through asynq when Redis is
// configured, on a local ticker otherwise.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskReconcile = "catalog:reconcile"

type ReconcilePayload struct {
	Trigger string `json:"trigger"` // "schedule" or "startup"
}

func NewReconcileTask(trigger string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReconcilePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskReconcile,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	), nil
}
