package recipe

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used to turn angles into kilometres.
const EarthRadiusKm = 6371.0088

// Nearest is the result of a nearest-recipe search.
type Nearest struct {
	Recipe     Recipe  `json:"recipe"`
	Index      int     `json:"index"`
	DistanceKm float64 `json:"distance_km"`
}

// FindNearest returns the recipe with the smallest great-circle distance to ref.
// Ties go to the earliest recipe. ok is false when recipes is empty.
func FindNearest(ref GeoPoint, recipes []Recipe) (nearest Nearest, ok bool) {
	origin := s2.LatLngFromDegrees(ref.Latitude, ref.Longitude)

	for i, rec := range recipes {
		d := origin.Distance(s2.LatLngFromDegrees(rec.Latitude, rec.Longitude)).Radians() * EarthRadiusKm
		if !ok || d < nearest.DistanceKm {
			nearest = Nearest{Recipe: rec, Index: i, DistanceKm: d}
			ok = true
		}
	}
	return nearest, ok
}
