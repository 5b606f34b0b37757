// Package cookbook coordinates the catalog, the nearest-recipe locator and
// photo classification on behalf of the API and the background worker.
package cookbook

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/metrics"
	"github.com/croustipeze/cookbook/internal/recipe"
	"github.com/croustipeze/cookbook/internal/services/catalog"
	"github.com/croustipeze/cookbook/internal/services/geolocation"
	"github.com/croustipeze/cookbook/internal/services/vision"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Store is the session catalog. *recipe.Repository implements it.
type Store interface {
	ReplaceAll(recipes []recipe.Recipe)
	All() []recipe.Recipe
	FilterByCategory(category string) []recipe.Recipe
}

// Match is the outcome of classifying a photo.
type Match struct {
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Recognized bool            `json:"recognized"`
	Recipes    []recipe.Recipe `json:"recipes"`
}

// Service runs the user-facing operations. Each kind of operation may only
// have one invocation in flight; a concurrent one fails with a BUSY_ERROR.
type Service struct {
	catalogURL string
	fetcher    catalog.Fetcher
	store      Store
	classifier vision.Classifier
	position   geolocation.Provider

	loading     atomic.Bool
	locating    atomic.Bool
	classifying atomic.Bool
}

// NewService wires the orchestrator around store, which LoadRecipes fills.
func NewService(catalogURL string, fetcher catalog.Fetcher, store Store, classifier vision.Classifier, position geolocation.Provider) *Service {
	return &Service{
		catalogURL: catalogURL,
		fetcher:    fetcher,
		store:      store,
		classifier: classifier,
		position:   position,
	}
}

// LoadRecipes fetches the catalog and replaces the repository contents with it.
// On failure the previous contents are kept.
func (s *Service) LoadRecipes(ctx context.Context) (int, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return 0, errors.NewBusyError("catalog load")
	}
	defer s.loading.Store(false)

	startTime := time.Now()
	recipes, err := s.fetcher.Fetch(ctx, s.catalogURL)
	duration := time.Since(startTime).Seconds()
	if err != nil {
		slog.ErrorContext(ctx, "Catalog load failed, keeping previous recipes",
			"url", s.catalogURL,
			"error", err.Error(),
			"duration", duration,
		)
		return 0, err
	}

	s.store.ReplaceAll(recipes)
	metrics.CatalogSize.Record(ctx, int64(len(recipes)))

	slog.InfoContext(ctx, "Catalog loaded",
		"url", s.catalogURL,
		"count", len(recipes),
		"duration", duration,
	)
	return len(recipes), nil
}

// LocateNearest returns the recipe closest to ref.
func (s *Service) LocateNearest(ctx context.Context, ref recipe.GeoPoint) (recipe.Nearest, error) {
	if !s.locating.CompareAndSwap(false, true) {
		return recipe.Nearest{}, errors.NewBusyError("nearest recipe lookup")
	}
	defer s.locating.Store(false)

	return s.locate(ctx, ref)
}

// LocateNearestToDevice reads the current position and returns the recipe closest to it.
func (s *Service) LocateNearestToDevice(ctx context.Context) (recipe.Nearest, error) {
	if !s.locating.CompareAndSwap(false, true) {
		return recipe.Nearest{}, errors.NewBusyError("nearest recipe lookup")
	}
	defer s.locating.Store(false)

	ref, err := s.position.CurrentPosition(ctx)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewPositionUnavailableError("failed to read the current position", "POSITION_UNAVAILABLE", err)
		}
		s.recordLookup(ctx, "position_unavailable")
		slog.WarnContext(ctx, "Current position unavailable", "error", err.Error())
		return recipe.Nearest{}, err
	}

	return s.locate(ctx, ref)
}

func (s *Service) locate(ctx context.Context, ref recipe.GeoPoint) (recipe.Nearest, error) {
	if math.IsNaN(ref.Latitude) || math.IsNaN(ref.Longitude) || !ref.Valid() {
		s.recordLookup(ctx, "invalid")
		return recipe.Nearest{}, errors.NewValidationError(
			fmt.Sprintf("reference position %s is out of range", ref),
			"INVALID_POSITION",
			"Latitude must be within [-90, 90] and longitude within [-180, 180].",
		)
	}

	nearest, ok := recipe.FindNearest(ref, s.store.All())
	if !ok {
		s.recordLookup(ctx, "empty")
		return recipe.Nearest{}, errors.NewNotFoundError(
			"no recipes are loaded",
			"CATALOG_EMPTY",
			"Refresh the catalog and try again.",
		)
	}

	s.recordLookup(ctx, "found")
	slog.DebugContext(ctx, "Nearest recipe located",
		"reference", ref.String(),
		"recipe", nearest.Recipe.Name,
		"distance_km", nearest.DistanceKm,
	)
	return nearest, nil
}

func (s *Service) recordLookup(ctx context.Context, outcome string) {
	metrics.NearestLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ClassifyAndFilter classifies image and, when the confidence reaches
// threshold, returns the recipes whose category equals the label.
func (s *Service) ClassifyAndFilter(ctx context.Context, image []byte, threshold float64) (Match, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return Match{}, errors.NewValidationError(
			fmt.Sprintf("confidence threshold %v is out of range", threshold),
			"INVALID_THRESHOLD",
			"Use a threshold between 0 and 1.",
		)
	}
	if !s.classifying.CompareAndSwap(false, true) {
		return Match{}, errors.NewBusyError("photo classification")
	}
	defer s.classifying.Store(false)

	res, err := s.classifier.Classify(ctx, image)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewClassificationError("image classification failed", "VISION_FAILED", 0, err)
		}
		s.recordClassification(ctx, "error")
		slog.ErrorContext(ctx, "Photo classification failed", "error", err.Error())
		return Match{}, err
	}

	match := Match{Label: res.Label, Confidence: res.Confidence}
	if res.Confidence < threshold {
		s.recordClassification(ctx, "unrecognized")
		slog.InfoContext(ctx, "Photo not recognized",
			"label", res.Label,
			"confidence", res.Confidence,
			"threshold", threshold,
		)
		return match, nil
	}

	match.Recognized = true
	match.Recipes = s.store.FilterByCategory(res.Label)
	s.recordClassification(ctx, "recognized")
	slog.InfoContext(ctx, "Photo recognized",
		"label", res.Label,
		"confidence", res.Confidence,
		"matches", len(match.Recipes),
	)
	return match, nil
}

func (s *Service) recordClassification(ctx context.Context, outcome string) {
	metrics.ClassificationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Recipes returns the loaded catalog in order.
func (s *Service) Recipes() []recipe.Recipe {
	return s.store.All()
}

// FilterByCategory returns the loaded recipes of the given category, ignoring case.
func (s *Service) FilterByCategory(category string) []recipe.Recipe {
	return s.store.FilterByCategory(category)
}
