package vision

import (
	"context"
	"log/slog"
	"time"

	"github.com/croustipeze/cookbook/internal/cache"
)

// CachedClassifier answers repeated photos from a cache keyed by image content.
type CachedClassifier struct {
	next  Classifier
	store cache.ClassificationStore
	ttl   time.Duration
}

// NewCachedClassifier wraps next with store. Entries live for ttl.
func NewCachedClassifier(next Classifier, store cache.ClassificationStore, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{next: next, store: store, ttl: ttl}
}

func (c *CachedClassifier) Classify(ctx context.Context, image []byte) (Result, error) {
	if hit, err := c.store.Get(ctx, image); err == nil && hit != nil {
		slog.DebugContext(ctx, "Classification cache hit", "label", hit.Label)
		return Result{Label: hit.Label, Confidence: hit.Confidence}, nil
	}

	res, err := c.next.Classify(ctx, image)
	if err != nil {
		return Result{}, err
	}

	if err := c.store.Set(ctx, image, &cache.Classification{Label: res.Label, Confidence: res.Confidence}, c.ttl); err != nil {
		slog.WarnContext(ctx, "Failed to cache classification", "error", err)
	}
	return res, nil
}
