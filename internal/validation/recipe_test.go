package validation

import (
	"testing"

	"github.com/croustipeze/cookbook/internal/recipe"
)

func TestValidateRecipe(t *testing.T) {
	t.Run("valid recipe", func(t *testing.T) {
		r := recipe.Recipe{Name: "Tart", Category: "Dessert", Latitude: 48.85, Longitude: 2.35}
		if issues := ValidateRecipe(0, r); len(issues) != 0 {
			t.Errorf("expected no issues, got %v", issues)
		}
	})

	t.Run("boundaries are valid", func(t *testing.T) {
		r := recipe.Recipe{Name: "Pole", Latitude: -90, Longitude: 180}
		if issues := ValidateRecipe(0, r); len(issues) != 0 {
			t.Errorf("expected no issues, got %v", issues)
		}
	})

	t.Run("any non-empty name is accepted", func(t *testing.T) {
		for _, name := range []string{"None", "N/A", "-", "null", "   "} {
			r := recipe.Recipe{Name: name, Latitude: 1, Longitude: 1}
			if issues := ValidateRecipe(0, r); len(issues) != 0 {
				t.Errorf("name %q: expected no issues, got %v", name, issues)
			}
		}
	})

	t.Run("empty name and bad coordinates", func(t *testing.T) {
		r := recipe.Recipe{Name: "", Latitude: 91, Longitude: -181}
		issues := ValidateRecipe(3, r)
		if len(issues) != 3 {
			t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
		}
		if issues[0].Field != "name" || issues[1].Field != "latitude" || issues[2].Field != "longitude" {
			t.Errorf("unexpected fields: %v", issues)
		}
		if issues[0].String() != "recipe 3: name must not be empty" {
			t.Errorf("unexpected message %q", issues[0].String())
		}
	})
}
