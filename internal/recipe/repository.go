package recipe

import (
	"strings"
	"sync"
)

// Repository holds the most recently fetched catalog for the session.
// ReplaceAll is the only mutator; readers always receive copies.
type Repository struct {
	mu      sync.RWMutex
	recipes []Recipe
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{}
}

// ReplaceAll discards the previous contents and stores recipes in order.
func (r *Repository) ReplaceAll(recipes []Recipe) {
	next := make([]Recipe, len(recipes))
	for i, rec := range recipes {
		next[i] = rec.clone()
	}

	r.mu.Lock()
	r.recipes = next
	r.mu.Unlock()
}

// All returns the current contents in their original order.
func (r *Repository) All() []Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Recipe, len(r.recipes))
	for i, rec := range r.recipes {
		out[i] = rec.clone()
	}
	return out
}

// Len returns the number of stored recipes.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipes)
}

// FilterByCategory returns the recipes whose category equals category,
// ignoring case. The result is empty, never nil, when nothing matches.
func (r *Repository) FilterByCategory(category string) []Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Recipe, 0)
	for _, rec := range r.recipes {
		if strings.EqualFold(rec.Category, category) {
			out = append(out, rec.clone())
		}
	}
	return out
}
