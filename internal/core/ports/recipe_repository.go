package ports

import (
	"context"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// RecipeRepository persists recipes. Read methods populate Author with the
// public author summary.
//
// UpdateOwned and DeleteOwned match on id and author in a single atomic
// operation; a nil recipe with a nil error means no recipe with that id is
// owned by authorID. UpdateOwned also returns the image URL the update
// replaced, or "" when the image was kept.
type RecipeRepository interface {
	List(ctx context.Context, search string) ([]*domain.Recipe, error)
	FindByID(ctx context.Context, id string) (*domain.Recipe, error)
	Create(ctx context.Context, recipe *domain.Recipe) (*domain.Recipe, error)
	UpdateOwned(ctx context.Context, id, authorID string, upd domain.RecipeUpdate) (*domain.Recipe, string, error)
	DeleteOwned(ctx context.Context, id, authorID string) (*domain.Recipe, error)
}
