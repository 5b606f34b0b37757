package geolocation

import (
	"log/slog"
	"time"

	"github.com/croustipeze/cookbook/internal/config"
	"github.com/croustipeze/cookbook/internal/recipe"
)

// LastKnownMaxAge is how long a live reading is reused before asking again.
const LastKnownMaxAge = 10 * time.Minute

// NewProvider builds the position source from cfg: the Google provider behind a
// last-known cache, then the static fallback position.
func NewProvider(cfg config.GeolocationConfig) Provider {
	var chain []Provider

	if cfg.GoogleMapsAPIKey != "" {
		google, err := NewGoogleProvider(cfg.GoogleMapsAPIKey)
		if err != nil {
			slog.Warn("Failed to init Google geolocation", "error", err)
		} else {
			chain = append(chain, NewLastKnownProvider(google, cfg.Timeout, LastKnownMaxAge))
		}
	}

	if lat, lon, ok := cfg.FallbackPosition(); ok {
		chain = append(chain, StaticProvider{Point: recipe.GeoPoint{Latitude: lat, Longitude: lon}})
	}

	switch len(chain) {
	case 0:
		return Unavailable{}
	case 1:
		return chain[0]
	default:
		return NewChainProvider(chain...)
	}
}
