package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/core/domain"
	"github.com/recipehub/recipe-api/internal/core/ports"
	"github.com/recipehub/recipe-api/internal/pkg/metrics"
)

// RecipeService orchestrates image upload, persistence and cleanup of
// orphaned images.
type RecipeService struct {
	repo    ports.RecipeRepository
	media   ports.MediaUploader
	cleaner ports.ImageCleaner
	logger  zerolog.Logger
}

func NewRecipeService(repo ports.RecipeRepository, media ports.MediaUploader, cleaner ports.ImageCleaner, logger zerolog.Logger) *RecipeService {
	return &RecipeService{repo: repo, media: media, cleaner: cleaner, logger: logger}
}

func (s *RecipeService) List(ctx context.Context, search string) ([]*domain.Recipe, error) {
	recipes, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []*domain.Recipe{}
	}
	return recipes, nil
}

func (s *RecipeService) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, domain.ErrRecipeNotFound
	}
	return recipe, nil
}

// Create uploads the image, if any, before persisting. An upload failure
// aborts the request with nothing stored.
func (s *RecipeService) Create(ctx context.Context, authorID string, in ports.RecipeInput) (*domain.Recipe, error) {
	if err := validateInput(in); err != nil {
		metrics.RecipeOperationsTotal.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	imageURL, err := s.media.Upload(ctx, in.Image)
	if err != nil {
		metrics.RecipeOperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Recipe{
		Title:        strings.TrimSpace(in.Title),
		Ingredients:  domain.ParseIngredients(in.Ingredients),
		Instructions: in.Instructions,
		Image:        imageURL,
		YoutubeLink:  strings.TrimSpace(in.YoutubeLink),
		AuthorID:     authorID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.discard(imageURL)
		metrics.RecipeOperationsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}

	metrics.RecipeOperationsTotal.WithLabelValues("create", "ok").Inc()
	s.logger.Info().Str("recipe_id", created.ID).Str("author_id", authorID).Msg("recipe created")
	return created, nil
}

// Update replaces the recipe fields when authorID owns the recipe. The stored
// image is kept unless a new one is attached.
func (s *RecipeService) Update(ctx context.Context, id, authorID string, in ports.RecipeInput) (*domain.Recipe, error) {
	if err := validateInput(in); err != nil {
		metrics.RecipeOperationsTotal.WithLabelValues("update", "invalid").Inc()
		return nil, err
	}

	imageURL, err := s.media.Upload(ctx, in.Image)
	if err != nil {
		metrics.RecipeOperationsTotal.WithLabelValues("update", resultLabel(err)).Inc()
		return nil, err
	}

	upd := domain.RecipeUpdate{
		Title:        strings.TrimSpace(in.Title),
		Ingredients:  domain.ParseIngredients(in.Ingredients),
		Instructions: in.Instructions,
		YoutubeLink:  strings.TrimSpace(in.YoutubeLink),
	}
	if imageURL != "" {
		upd.Image = &imageURL
	}

	updated, replaced, err := s.repo.UpdateOwned(ctx, id, authorID, upd)
	if err != nil {
		s.discard(imageURL)
		metrics.RecipeOperationsTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	if updated == nil {
		s.discard(imageURL)
		metrics.RecipeOperationsTotal.WithLabelValues("update", "not_found").Inc()
		return nil, domain.ErrNotFoundOrNotAuthor
	}

	if replaced != "" && replaced != imageURL {
		s.discard(replaced)
	}

	metrics.RecipeOperationsTotal.WithLabelValues("update", "ok").Inc()
	s.logger.Info().Str("recipe_id", updated.ID).Str("author_id", authorID).Msg("recipe updated")
	return updated, nil
}

func (s *RecipeService) Delete(ctx context.Context, id, authorID string) error {
	deleted, err := s.repo.DeleteOwned(ctx, id, authorID)
	if err != nil {
		metrics.RecipeOperationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	if deleted == nil {
		metrics.RecipeOperationsTotal.WithLabelValues("delete", "not_found").Inc()
		return domain.ErrNotFoundOrNotAuthor
	}

	s.discard(deleted.Image)
	metrics.RecipeOperationsTotal.WithLabelValues("delete", "ok").Inc()
	s.logger.Info().Str("recipe_id", deleted.ID).Str("author_id", authorID).Msg("recipe deleted")
	return nil
}

// discard schedules removal of an image no recipe references anymore.
func (s *RecipeService) discard(url string) {
	if url == "" || s.cleaner == nil {
		return
	}
	s.cleaner.Enqueue(url)
}

func validateInput(in ports.RecipeInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &domain.ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpload):
		return "upload_error"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
