package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClassificationStore provides Redis-backed caching for vision predictions.
// A nil client turns every call into a miss.
type RedisClassificationStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClassificationStore creates a new classification cache with the given Redis client.
func NewRedisClassificationStore(client *redis.Client) *RedisClassificationStore {
	return &RedisClassificationStore{
		client: client,
		prefix: "cookbook:classification:",
	}
}

// NewRedisClient parses a redis:// or rediss:// URL, or a plain host:port, into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Key returns the cache key for an image by hashing its bytes.
func (c *RedisClassificationStore) Key(image []byte) string {
	hash := sha256.Sum256(image)
	return fmt.Sprintf("%s%x", c.prefix, hash)
}

// Get retrieves a cached prediction. Redis failures are logged and treated as misses.
func (c *RedisClassificationStore) Get(ctx context.Context, image []byte) (*Classification, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.Key(image)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache get failed", "error", err)
		return nil, nil
	}

	var cached Classification
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached classification", "error", err)
		return nil, nil
	}

	return &cached, nil
}

// Set stores a prediction with the given TTL.
func (c *RedisClassificationStore) Set(ctx context.Context, image []byte, cl *Classification, ttl time.Duration) error {
	if c.client == nil || cl == nil {
		return nil
	}

	data, err := json.Marshal(cl)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, c.Key(image), data, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache set failed", "error", err)
	}

	return nil
}
