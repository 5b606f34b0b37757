package geolocation

import (
	"context"
	"fmt"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/httpclient"
	"github.com/croustipeze/cookbook/internal/metrics"
	"github.com/croustipeze/cookbook/internal/recipe"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"googlemaps.github.io/maps"
)

// GoogleProvider resolves the position with the Google Maps Geolocation API.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider creates a provider. Extra options are passed to maps.NewClient.
func NewGoogleProvider(apiKey string, opts ...maps.ClientOption) (*GoogleProvider, error) {
	options := append([]maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(httpclient.New(httpclient.DefaultTimeout)),
	}, opts...)

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

func (p *GoogleProvider) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		attrs := []attribute.KeyValue{attribute.String("upstream", "google_geolocation")}
		metrics.ExternalAPIDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}()

	res, err := p.client.Geolocate(httpclient.WithUpstream(ctx, "GoogleGeolocation"), &maps.GeolocationRequest{
		ConsiderIP: true,
	})
	if err != nil {
		return recipe.GeoPoint{}, errors.NewPositionUnavailableError("geolocation request failed", "POSITION_LOOKUP_FAILED", err)
	}

	pt := recipe.GeoPoint{Latitude: res.Location.Lat, Longitude: res.Location.Lng}
	if !pt.Valid() {
		return recipe.GeoPoint{}, errors.NewPositionUnavailableError(
			fmt.Sprintf("geolocation returned an invalid position %s", pt), "POSITION_INVALID", nil)
	}
	return pt, nil
}
