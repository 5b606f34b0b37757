package worker

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/croustipeze/cookbook/internal/sentry"
	"github.com/croustipeze/cookbook/internal/telemetry"
	sentrygo "github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// taskInfo is what the middleware chain knows about a running task.
type taskInfo struct {
	ID        string
	Queue     string
	Retry     int
	Reason    string
	RequestID string
}

// describeTask reads asynq metadata and, for catalog refreshes, the payload.
// A payload that does not decode leaves Reason empty; the handler reports it.
func describeTask(ctx context.Context, t *asynq.Task) taskInfo {
	info := taskInfo{}
	info.ID, _ = asynq.GetTaskID(ctx)
	info.Queue, _ = asynq.GetQueueName(ctx)
	info.Retry, _ = asynq.GetRetryCount(ctx)

	if t.Type() == TypeRefreshCatalog && len(t.Payload()) > 0 {
		var p RefreshCatalogPayload
		if json.Unmarshal(t.Payload(), &p) == nil {
			info.Reason, info.RequestID = p.Reason, p.RequestID
		}
	}
	return info
}

// Traced runs each task inside a consumer span tagged with the refresh reason.
func Traced(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describeTask(ctx, t)

		ctx, span := telemetry.Tracer("cookbook/worker").Start(ctx, "task "+t.Type(), trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()
		span.SetAttributes(
			attribute.String("task.id", info.ID),
			attribute.String("task.queue", info.Queue),
			attribute.Int("task.retry", info.Retry),
			attribute.String("catalog.refresh.reason", info.Reason),
		)

		err := h.ProcessTask(ctx, t)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}

// Reported gives each task its own Sentry hub and captures the errors worth reporting.
func Reported(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describeTask(ctx, t)

		hub := sentrygo.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentrygo.Scope) {
			scope.SetTags(map[string]string{
				"task_type":      t.Type(),
				"task_id":        info.ID,
				"refresh_reason": info.Reason,
				"retry":          strconv.Itoa(info.Retry),
			})
			if info.RequestID != "" {
				scope.SetTag("request_id", info.RequestID)
			}
		})

		ctx = sentrygo.SetHubOnContext(ctx, hub)
		err := h.ProcessTask(ctx, t)
		sentry.CaptureError(ctx, err)
		return err
	})
}
