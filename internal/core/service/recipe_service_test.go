package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/core/domain"
	"github.com/recipehub/recipe-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubRecipeRepo struct {
	recipes   map[string]*domain.Recipe
	seq       int
	createErr error
}

func newStubRecipeRepo() *stubRecipeRepo {
	return &stubRecipeRepo{recipes: make(map[string]*domain.Recipe)}
}

func cloneRecipe(r *domain.Recipe) *domain.Recipe {
	clone := *r
	clone.Ingredients = append([]string(nil), r.Ingredients...)
	clone.Author = &domain.AuthorSummary{ID: r.AuthorID}
	return &clone
}

func (r *stubRecipeRepo) List(_ context.Context, search string) ([]*domain.Recipe, error) {
	var out []*domain.Recipe
	for _, rec := range r.recipes {
		if search == "" || strings.Contains(strings.ToLower(rec.Title), strings.ToLower(search)) {
			out = append(out, cloneRecipe(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubRecipeRepo) FindByID(_ context.Context, id string) (*domain.Recipe, error) {
	rec, ok := r.recipes[id]
	if !ok {
		return nil, nil
	}
	return cloneRecipe(rec), nil
}

func (r *stubRecipeRepo) Create(_ context.Context, recipe *domain.Recipe) (*domain.Recipe, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	stored := cloneRecipe(recipe)
	stored.ID = fmt.Sprintf("r%d", r.seq)
	r.recipes[stored.ID] = stored
	return cloneRecipe(stored), nil
}

func (r *stubRecipeRepo) UpdateOwned(_ context.Context, id, authorID string, upd domain.RecipeUpdate) (*domain.Recipe, string, error) {
	rec, ok := r.recipes[id]
	if !ok || rec.AuthorID != authorID {
		return nil, "", nil
	}
	replaced := ""
	rec.Title = upd.Title
	rec.Ingredients = upd.Ingredients
	rec.Instructions = upd.Instructions
	rec.YoutubeLink = upd.YoutubeLink
	if upd.Image != nil {
		replaced = rec.Image
		rec.Image = *upd.Image
	}
	return cloneRecipe(rec), replaced, nil
}

func (r *stubRecipeRepo) DeleteOwned(_ context.Context, id, authorID string) (*domain.Recipe, error) {
	rec, ok := r.recipes[id]
	if !ok || rec.AuthorID != authorID {
		return nil, nil
	}
	delete(r.recipes, id)
	return cloneRecipe(rec), nil
}

type fakeUploader struct {
	err      error
	uploaded []string
}

func (u *fakeUploader) Upload(_ context.Context, file *ports.ImageFile) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", nil
	}
	if u.err != nil {
		return "", u.err
	}
	url := "https://storage.example.com/bucket/" + file.Filename
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) Remove(context.Context, string) error { return nil }

type fakeCleaner struct {
	queued []string
}

func (c *fakeCleaner) Enqueue(url string) { c.queued = append(c.queued, url) }

func newTestRecipeService() (*RecipeService, *stubRecipeRepo, *fakeUploader, *fakeCleaner) {
	repo := newStubRecipeRepo()
	up := &fakeUploader{}
	cl := &fakeCleaner{}
	return NewRecipeService(repo, up, cl, zerolog.Nop()), repo, up, cl
}

func image(name string) *ports.ImageFile {
	return &ports.ImageFile{Filename: name, Data: []byte("img")}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRecipeService_Create(t *testing.T) {
	svc, repo, _, _ := newTestRecipeService()

	recipe, err := svc.Create(context.Background(), "u1", ports.RecipeInput{
		Title:        "  Pancakes ",
		Ingredients:  "flour, eggs , milk",
		Instructions: "Mix and fry.",
		Image:        image("p.png"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if recipe.Title != "Pancakes" {
		t.Fatalf("expected trimmed title, got %q", recipe.Title)
	}
	if got := strings.Join(recipe.Ingredients, "|"); got != "flour|eggs|milk" {
		t.Fatalf("unexpected ingredients: %q", got)
	}
	if recipe.Image != "https://storage.example.com/bucket/p.png" {
		t.Fatalf("unexpected image: %q", recipe.Image)
	}
	if recipe.AuthorID != "u1" || recipe.CreatedAt.IsZero() {
		t.Fatalf("author or createdAt not set: %+v", recipe)
	}
	if len(repo.recipes) != 1 {
		t.Fatalf("expected 1 stored recipe, got %d", len(repo.recipes))
	}
}

func TestRecipeService_Create_RequiresTitle(t *testing.T) {
	svc, repo, up, _ := newTestRecipeService()

	_, err := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "   ", Image: image("p.png")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(repo.recipes) != 0 || len(up.uploaded) != 0 {
		t.Fatalf("nothing must be stored or uploaded on validation failure")
	}
}

func TestRecipeService_Create_UploadFailurePersistsNothing(t *testing.T) {
	svc, repo, up, _ := newTestRecipeService()
	up.err = &domain.UploadError{Cause: errors.New("bucket unreachable")}

	_, err := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Soup", Image: image("s.png")})
	if !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if len(repo.recipes) != 0 {
		t.Fatalf("expected no stored recipe, got %d", len(repo.recipes))
	}
}

func TestRecipeService_Create_PersistenceFailureDiscardsImage(t *testing.T) {
	svc, repo, _, cleaner := newTestRecipeService()
	repo.createErr = &domain.PersistenceError{Op: "insert recipe", Err: errors.New("boom")}

	_, err := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Soup", Image: image("s.png")})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(cleaner.queued) != 1 || cleaner.queued[0] != "https://storage.example.com/bucket/s.png" {
		t.Fatalf("expected uploaded image to be queued for removal, got %v", cleaner.queued)
	}
}

func TestRecipeService_Get(t *testing.T) {
	svc, _, _, _ := newTestRecipeService()
	created, _ := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Tea"})

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil || got.Title != "Tea" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestRecipeService_List_NeverNil(t *testing.T) {
	svc, _, _, _ := newTestRecipeService()

	recipes, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if recipes == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestRecipeService_Update_KeepsImageWithoutNewFile(t *testing.T) {
	svc, _, _, cleaner := newTestRecipeService()
	created, _ := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Tea", Image: image("t.png")})

	updated, err := svc.Update(context.Background(), created.ID, "u1", ports.RecipeInput{Title: "Green tea", Ingredients: "leaves"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Green tea" || updated.Image != created.Image {
		t.Fatalf("unexpected updated recipe: %+v", updated)
	}
	if len(cleaner.queued) != 0 {
		t.Fatalf("no image should be discarded, got %v", cleaner.queued)
	}
}

func TestRecipeService_Update_ReplacesImage(t *testing.T) {
	svc, _, _, cleaner := newTestRecipeService()
	created, _ := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Tea", Image: image("old.png")})

	updated, err := svc.Update(context.Background(), created.ID, "u1", ports.RecipeInput{Title: "Tea", Image: image("new.png")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Image != "https://storage.example.com/bucket/new.png" {
		t.Fatalf("unexpected image: %q", updated.Image)
	}
	if len(cleaner.queued) != 1 || cleaner.queued[0] != created.Image {
		t.Fatalf("expected old image to be discarded, got %v", cleaner.queued)
	}
}

func TestRecipeService_Update_NotAuthor(t *testing.T) {
	svc, repo, _, cleaner := newTestRecipeService()
	created, _ := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Tea"})

	_, err := svc.Update(context.Background(), created.ID, "u2", ports.RecipeInput{Title: "Stolen", Image: image("x.png")})
	if !errors.Is(err, domain.ErrNotFoundOrNotAuthor) {
		t.Fatalf("expected ErrNotFoundOrNotAuthor, got %v", err)
	}
	if repo.recipes[created.ID].Title != "Tea" {
		t.Fatalf("recipe must not change")
	}
	if len(cleaner.queued) != 1 || cleaner.queued[0] != "https://storage.example.com/bucket/x.png" {
		t.Fatalf("expected the unused upload to be discarded, got %v", cleaner.queued)
	}
}

func TestRecipeService_Delete(t *testing.T) {
	svc, repo, _, cleaner := newTestRecipeService()
	created, _ := svc.Create(context.Background(), "u1", ports.RecipeInput{Title: "Tea", Image: image("t.png")})

	if err := svc.Delete(context.Background(), created.ID, "u2"); !errors.Is(err, domain.ErrNotFoundOrNotAuthor) {
		t.Fatalf("expected ErrNotFoundOrNotAuthor, got %v", err)
	}
	if len(repo.recipes) != 1 {
		t.Fatalf("recipe must survive a foreign delete")
	}

	if err := svc.Delete(context.Background(), created.ID, "u1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.recipes) != 0 {
		t.Fatalf("expected recipe to be removed")
	}
	if len(cleaner.queued) != 1 || cleaner.queued[0] != created.Image {
		t.Fatalf("expected image to be discarded, got %v", cleaner.queued)
	}

	if err := svc.Delete(context.Background(), created.ID, "u1"); !errors.Is(err, domain.ErrNotFoundOrNotAuthor) {
		t.Fatalf("expected ErrNotFoundOrNotAuthor on second delete, got %v", err)
	}
}
