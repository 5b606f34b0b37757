package api

import (
	"fmt"

	"github.com/croustipeze/cookbook/internal/cookbook"
	"github.com/croustipeze/cookbook/internal/recipe"
)

// NearestSummary is the one-line text shown for the closest recipe.
func NearestSummary(r recipe.Recipe) string {
	return r.Name + " at " + r.Location
}

// MatchSummary is the one-line text shown after a classification.
func MatchSummary(m cookbook.Match) string {
	if !m.Recognized {
		return "I've no idea what I'm looking at"
	}
	return fmt.Sprintf("Let's cook %s! (%.1f%% accuracy)", m.Label, m.Confidence*100)
}
