package cache

import (
	"context"
	"time"
)

// Classification is a cached vision prediction.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ClassificationStore caches predictions keyed by image content.
type ClassificationStore interface {
	// Get returns nil when the image has not been classified or the entry expired.
	Get(ctx context.Context, image []byte) (*Classification, error)

	// Set stores a prediction for the image with the given TTL.
	Set(ctx context.Context, image []byte, c *Classification, ttl time.Duration) error
}
