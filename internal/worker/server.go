package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/hibiken/asynq"
)

// NewServer creates the Asynq server that runs catalog refreshes. Concurrency
// is 1: refreshes replace the whole catalog and never overlap.
func NewServer(opt asynq.RedisConnOpt) *asynq.Server {
	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{QueueCatalog: 1},
			Logger:      slogAdapter{},
			IsFailure: func(err error) bool {
				return !errors.IsType(err, errors.ErrorTypeBusy)
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				slog.ErrorContext(ctx, "Task failed", "type", task.Type(), "error", err.Error())
			}),
		},
	)
}

// NewMux registers handlers behind the tracing, sentry and metrics middleware.
func NewMux(handlers map[string]asynq.HandlerFunc, m *WorkerMetrics) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(Traced, Reported, m.Middleware)
	for taskType, handler := range handlers {
		mux.HandleFunc(taskType, handler)
	}
	return mux
}

// Start starts the server with the given handlers
func Start(srv *asynq.Server, handlers map[string]asynq.HandlerFunc, m *WorkerMetrics) error {
	return srv.Start(NewMux(handlers, m))
}

type slogAdapter struct{}

func (slogAdapter) Debug(args ...interface{}) { slog.Debug(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Info(args ...interface{})  { slog.Info(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Warn(args ...interface{})  { slog.Warn(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Error(args ...interface{}) { slog.Error(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Fatal(args ...interface{}) {
	slog.Error(fmt.Sprint(args...), "component", "asynq")
	os.Exit(1)
}
