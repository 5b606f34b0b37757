// Package vision adapts image-classification services to a single
// best-label contract.
package vision

import "context"

// ProviderType names a classification backend.
type ProviderType string

const (
	ProviderCustomVision ProviderType = "customvision"
)

// Result is the top prediction for an image.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier returns the best label for an image. Failures are CLASSIFICATION_ERRORs.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Result, error)
}
