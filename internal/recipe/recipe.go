// Package recipe holds the recipe model and the in-memory catalog operations:
// the session repository and the nearest-recipe locator.
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Recipe is a single dish entry from the catalog.
//
// Members other than the five known ones are kept verbatim in Extra and
// written back out by MarshalJSON.
type Recipe struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Extra map[string]json.RawMessage `json:"-"`
}

// GeoPoint is a WGS 84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies in the WGS 84 coordinate ranges.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Latitude, p.Longitude)
}

// Point returns the recipe's coordinates.
func (r Recipe) Point() GeoPoint {
	return GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

var knownFields = []string{"name", "category", "location", "latitude", "longitude"}

// isKnownField matches the way encoding/json assigns members to struct
// fields, which ignores case.
func isKnownField(key string) bool {
	for _, f := range knownFields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}

// clone returns r with its own copy of Extra.
func (r Recipe) clone() Recipe {
	r.Extra = maps.Clone(r.Extra)
	return r
}

// UnmarshalJSON decodes the known members and keeps every other member raw.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type alias Recipe
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*r = Recipe(known)
	r.Extra = nil
	for k, v := range all {
		if isKnownField(k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes the known members followed by the pass-through ones.
func (r Recipe) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+len(knownFields))
	for k, v := range r.Extra {
		if isKnownField(k) {
			continue
		}
		out[k] = v
	}

	type alias Recipe
	known, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		out[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
