package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExpiryScan is the task type for the periodic expiry sweep.
	TaskExpiryScan = "inventory:expiry_scan"
	// TaskRegistryRefresh is the task type for the periodic snapshot reload.
	TaskRegistryRefresh = "registry:refresh"
	// TaskIdempotencyCleanup is the task type for expiring old request keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ExpiryScanPayload bounds the sweep horizon. A zero WindowDays falls back to
// the handler's configured default.
type ExpiryScanPayload struct {
	WindowDays int `json:"window_days"`
}

// NewExpiryScanTask constructs an Asynq task for the expiry sweep.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryScan, data), nil
}

// NewRegistryRefreshTask constructs an Asynq task for the snapshot reload.
func NewRegistryRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRegistryRefresh, nil)
}

// NewIdempotencyCleanupTask constructs an Asynq task for request-key expiry.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
