package ports

import (
	"context"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// ImageFile is an uploaded image held in memory.
type ImageFile struct {
	Filename string
	Data     []byte
}

// RecipeInput is the payload of create and update requests. Ingredients is
// the raw comma separated list. Image is nil when no file was attached.
type RecipeInput struct {
	Title        string
	Ingredients  string
	Instructions string
	YoutubeLink  string
	Image        *ImageFile
}

type RecipeService interface {
	List(ctx context.Context, search string) ([]*domain.Recipe, error)
	Get(ctx context.Context, id string) (*domain.Recipe, error)
	Create(ctx context.Context, authorID string, in RecipeInput) (*domain.Recipe, error)
	Update(ctx context.Context, id, authorID string, in RecipeInput) (*domain.Recipe, error)
	Delete(ctx context.Context, id, authorID string) error
}
