package vision

import (
	"context"
	"fmt"
	"net/http"

	"github.com/croustipeze/cookbook/internal/cache"
	"github.com/croustipeze/cookbook/internal/config"
	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/utils"
)

// NewClassifier builds the classifier described by cfg. A nil store disables caching.
// Without credentials it returns a classifier that always fails, so the rest of
// the service keeps working.
func NewClassifier(cfg config.ClassificationConfig, store cache.ClassificationStore) Classifier {
	var c Classifier

	switch ProviderType(cfg.Provider) {
	case ProviderCustomVision, "":
		if cfg.Endpoint == "" || cfg.ProjectID == "" || cfg.Iteration == "" || cfg.PredictionKey == "" {
			return Unconfigured{Reason: "Custom Vision endpoint, project, iteration and prediction key are required"}
		}
		retry := utils.DefaultRetryConfig()
		retry.MaxAttempts = cfg.MaxAttempts
		c = NewCustomVisionProvider(cfg.Endpoint, cfg.ProjectID, cfg.Iteration, cfg.PredictionKey).WithRetry(retry)
	default:
		return Unconfigured{Reason: fmt.Sprintf("unknown classification provider %q", cfg.Provider)}
	}

	if store != nil {
		c = NewCachedClassifier(c, store, cfg.CacheTTL)
	}
	return c
}

// Unconfigured is a Classifier for deployments without a vision backend.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Classify(ctx context.Context, image []byte) (Result, error) {
	err := errors.NewClassificationError("image classification is not configured", "VISION_NOT_CONFIGURED", http.StatusNotImplemented, fmt.Errorf("%s", u.Reason))
	return Result{}, err
}
