package domain

import (
	"strings"
	"time"
)

// AuthorSummary is the public view of a recipe author. It never carries the
// author's email or password hash.
type AuthorSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Recipe is the core aggregate.
type Recipe struct {
	ID           string         `json:"_id"`
	Title        string         `json:"title"`
	Ingredients  []string       `json:"ingredients"`
	Instructions string         `json:"instructions"`
	Image        string         `json:"image,omitempty"`
	YoutubeLink  string         `json:"youtubeLink,omitempty"`
	AuthorID     string         `json:"-"`
	Author       *AuthorSummary `json:"author"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// RecipeUpdate carries the fields replaced by an update. Image is nil when
// the stored image must be kept.
type RecipeUpdate struct {
	Title        string
	Ingredients  []string
	Instructions string
	YoutubeLink  string
	Image        *string
}

// ParseIngredients splits a comma separated list, trimming every entry.
// Entries that are empty after trimming are dropped.
func ParseIngredients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
