package validation

import (
	"fmt"
	"math"

	"github.com/croustipeze/cookbook/internal/recipe"
)

// Issue describes one schema violation in a catalog record.
type Issue struct {
	Index int
	Field string
	Msg   string
}

func (i Issue) String() string {
	return fmt.Sprintf("recipe %d: %s %s", i.Index, i.Field, i.Msg)
}

// ValidateRecipe checks a decoded record against the catalog schema.
// index is only used to label the returned issues.
func ValidateRecipe(index int, r recipe.Recipe) []Issue {
	var issues []Issue
	add := func(field, msg string) {
		issues = append(issues, Issue{Index: index, Field: field, Msg: msg})
	}

	if r.Name == "" {
		add("name", "must not be empty")
	}
	if math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90 {
		add("latitude", fmt.Sprintf("%v is outside [-90, 90]", r.Latitude))
	}
	if math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180 {
		add("longitude", fmt.Sprintf("%v is outside [-180, 180]", r.Longitude))
	}
	return issues
}
