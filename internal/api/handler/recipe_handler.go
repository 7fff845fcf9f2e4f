package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recipehub/recipe-api/internal/core/domain"
	"github.com/recipehub/recipe-api/internal/core/ports"
)

type RecipeHandler struct {
	service       ports.RecipeService
	maxImageBytes int64
}

func NewRecipeHandler(service ports.RecipeService, maxImageBytes int64) *RecipeHandler {
	return &RecipeHandler{service: service, maxImageBytes: maxImageBytes}
}

// List returns recipes, newest first.
//
// @Summary      List recipes
// @Tags         recipes
// @Produce      json
// @Param        search  query     string  false  "Case-insensitive text matched against title, ingredients and instructions"
// @Success      200     {array}   domain.Recipe
// @Failure      500     {object}  map[string]string
// @Router       /api/recipes [get]
func (h *RecipeHandler) List(c echo.Context) error {
	recipes, err := h.service.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipes)
}

// Get returns one recipe.
//
// @Summary      Get a recipe
// @Tags         recipes
// @Produce      json
// @Param        id   path      string  true  "Recipe ID"
// @Success      200  {object}  domain.Recipe
// @Failure      404  {object}  map[string]string
// @Router       /api/recipes/{id} [get]
func (h *RecipeHandler) Get(c echo.Context) error {
	recipe, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

// Create stores a recipe authored by the caller.
//
// @Summary      Create a recipe
// @Tags         recipes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title         formData  string  true   "Title"
// @Param        ingredients   formData  string  false  "Comma separated ingredients"
// @Param        instructions  formData  string  false  "Instructions"
// @Param        youtubeLink   formData  string  false  "YouTube URL"
// @Param        image         formData  file    false  "Image (max 5 MiB)"
// @Success      201  {object}  domain.Recipe
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/recipes [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	in, err := h.bindRecipe(c)
	if err != nil {
		return err
	}

	recipe, err := h.service.Create(c.Request().Context(), userID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipe)
}

// Update replaces a recipe owned by the caller. The image is kept unless a
// new one is attached.
//
// @Summary      Update a recipe
// @Tags         recipes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id            path      string  true   "Recipe ID"
// @Param        title         formData  string  true   "Title"
// @Param        ingredients   formData  string  false  "Comma separated ingredients"
// @Param        instructions  formData  string  false  "Instructions"
// @Param        youtubeLink   formData  string  false  "YouTube URL"
// @Param        image         formData  file    false  "Replacement image (max 5 MiB)"
// @Success      200  {object}  domain.Recipe
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/recipes/{id} [put]
func (h *RecipeHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	in, err := h.bindRecipe(c)
	if err != nil {
		return err
	}

	recipe, err := h.service.Update(c.Request().Context(), c.Param("id"), userID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

// Delete removes a recipe owned by the caller.
//
// @Summary      Delete a recipe
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recipe ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/recipes/{id} [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Recipe deleted successfully"})
}

func (h *RecipeHandler) bindRecipe(c echo.Context) (ports.RecipeInput, error) {
	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return ports.RecipeInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.RecipeInput{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	image, err := h.readImage(c)
	if err != nil {
		return ports.RecipeInput{}, err
	}

	return ports.RecipeInput{
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		YoutubeLink:  req.YoutubeLink,
		Image:        image,
	}, nil
}

// readImage loads the optional "image" part into memory, refusing anything
// above the configured ceiling.
func (h *RecipeHandler) readImage(c echo.Context) (*ports.ImageFile, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
	}

	tooLarge := &domain.ValidationError{Field: "image", Message: fmt.Sprintf("must not exceed %d bytes", h.maxImageBytes)}
	if fh.Size > h.maxImageBytes {
		return nil, tooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid image part")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid image part")
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, tooLarge
	}

	return &ports.ImageFile{Filename: fh.Filename, Data: data}, nil
}
