package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("cookbook/worker")

// WorkerMetrics counts catalog refresh tasks by reason and outcome.
type WorkerMetrics struct {
	refreshes metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewWorkerMetrics() (*WorkerMetrics, error) {
	refreshes, err := meter.Int64Counter(
		"worker.catalog_refreshes.total",
		metric.WithDescription("Catalog refresh tasks handled by the worker"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"worker.catalog_refresh.duration",
		metric.WithDescription("Time spent handling a catalog refresh task"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.25, 1, 5, 15, 30, 120),
	)
	if err != nil {
		return nil, err
	}

	return &WorkerMetrics{refreshes: refreshes, duration: duration}, nil
}

// Record adds one handled task. reason is empty for tasks without a refresh payload.
func (m *WorkerMetrics) Record(ctx context.Context, taskType, reason string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	attrs := []attribute.KeyValue{
		attribute.String("task.type", taskType),
		attribute.String("reason", reason),
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", outcome))...))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// Middleware records every task. A nil *WorkerMetrics records nothing.
func (m *WorkerMetrics) Middleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := h.ProcessTask(ctx, t)
		m.Record(ctx, t.Type(), describeTask(ctx, t).Reason, err != nil, time.Since(start))
		return err
	})
}
