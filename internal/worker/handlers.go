package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/hibiken/asynq"
)

const (
	ReasonAPI      = "api"
	ReasonSchedule = "schedule"
)

// Loader is implemented by *cookbook.Service.
type Loader interface {
	LoadRecipes(ctx context.Context) (int, error)
}

// CatalogRefresher serves catalog:refresh tasks by reloading the catalog.
type CatalogRefresher struct {
	loader Loader
}

// NewCatalogRefresher creates a refresher backed by loader.
func NewCatalogRefresher(loader Loader) *CatalogRefresher {
	return &CatalogRefresher{loader: loader}
}

// Handlers returns the task handlers this worker serves.
func (p *CatalogRefresher) Handlers() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TypeRefreshCatalog: p.HandleRefreshCatalog,
	}
}

func (p *CatalogRefresher) HandleRefreshCatalog(ctx context.Context, t *asynq.Task) error {
	var payload RefreshCatalogPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	slog.InfoContext(ctx, "Refreshing catalog", "request_id", payload.RequestID, "reason", payload.Reason)

	count, err := p.loader.LoadRecipes(ctx)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeBusy) {
			// Another load is already replacing the catalog.
			slog.InfoContext(ctx, "Catalog refresh skipped", "request_id", payload.RequestID, "reason", err.Error())
			return nil
		}
		return fmt.Errorf("catalog refresh failed: %w", err)
	}

	slog.InfoContext(ctx, "Catalog refreshed", "request_id", payload.RequestID, "count", count)
	return nil
}
