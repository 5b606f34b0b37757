package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter = otel.Meter("cookbook/business")

	// Catalog metrics
	CatalogFetchesTotal  metric.Int64Counter     = noop.Int64Counter{}
	CatalogFetchDuration metric.Float64Histogram = noop.Float64Histogram{}
	CatalogSize          metric.Int64Gauge       = noop.Int64Gauge{}

	// Lookup metrics
	NearestLookupsTotal  metric.Int64Counter = noop.Int64Counter{}
	ClassificationsTotal metric.Int64Counter = noop.Int64Counter{}

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter     = noop.Int64Counter{}
	ExternalAPIDuration   metric.Float64Histogram = noop.Float64Histogram{}
)

// Init registers the business instruments on the global meter provider.
// Until Init runs the instruments are no-ops.
func Init() error {
	var err error

	CatalogFetchesTotal, err = meter.Int64Counter(
		"catalog.fetches.total",
		metric.WithDescription("Total number of catalog fetches by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	CatalogFetchDuration, err = meter.Float64Histogram(
		"catalog.fetch.duration",
		metric.WithDescription("Duration of catalog fetches"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	CatalogSize, err = meter.Int64Gauge(
		"catalog.size",
		metric.WithDescription("Number of recipes held after the last successful fetch"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	NearestLookupsTotal, err = meter.Int64Counter(
		"recipe.nearest.lookups.total",
		metric.WithDescription("Total number of nearest-recipe lookups by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ClassificationsTotal, err = meter.Int64Counter(
		"recipe.classifications.total",
		metric.WithDescription("Total number of photo classifications by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	return nil
}
