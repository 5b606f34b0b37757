package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// NewScheduler enqueues a catalog refresh every interval. It returns nil
// when interval is zero.
func NewScheduler(opt asynq.RedisConnOpt, interval time.Duration) (*asynq.Scheduler, error) {
	if interval <= 0 {
		return nil, nil
	}

	task, err := NewRefreshCatalogTask(RefreshCatalogPayload{Reason: ReasonSchedule})
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Logger: slogAdapter{},
	})
	if _, err := scheduler.Register(CronSpec(interval), task); err != nil {
		return nil, fmt.Errorf("failed to register catalog refresh: %w", err)
	}
	return scheduler, nil
}

// CronSpec turns an interval into an "@every" schedule, rounded to whole seconds.
func CronSpec(interval time.Duration) string {
	interval = interval.Round(time.Second)
	if interval < time.Second {
		interval = time.Second
	}
	return "@every " + interval.String()
}
