package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeRefreshCatalog = "catalog:refresh"
)

// QueueCatalog holds catalog refresh tasks.
const QueueCatalog = "catalog"

// RefreshCatalogPayload is the payload for catalog refresh tasks
type RefreshCatalogPayload struct {
	RequestID string `json:"request_id,omitempty"`
	// Reason is "api" for operator-triggered refreshes and "schedule" for periodic ones.
	Reason string `json:"reason"`
}

// NewRefreshCatalogTask creates a catalog refresh task. Catalog fetches are
// never retried, so the task is not either.
func NewRefreshCatalogTask(payload RefreshCatalogPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{
		asynq.Queue(QueueCatalog),
		asynq.MaxRetry(0),
		asynq.Timeout(2 * time.Minute),
	}
	if payload.RequestID != "" {
		opts = append(opts, asynq.TaskID(payload.RequestID))
	}
	return asynq.NewTask(TypeRefreshCatalog, data, opts...), nil
}
