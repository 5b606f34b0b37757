package worker

import (
	"context"
	"strings"

	"github.com/hibiken/asynq"
)

// ParseRedisURL parses a Redis URL (redis://, rediss://, redis-socket://,
// redis-sentinel://) or a plain host:port into an asynq connection option.
func ParseRedisURL(redisURL string) (asynq.RedisConnOpt, error) {
	if !strings.Contains(redisURL, "://") {
		return asynq.RedisClientOpt{Addr: redisURL}, nil
	}
	return asynq.ParseRedisURI(redisURL)
}

// Enqueuer is the part of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewClient creates a new Asynq client for enqueueing tasks
func NewClient(redisURL string) (*asynq.Client, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}
