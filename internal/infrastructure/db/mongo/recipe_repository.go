package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

const collectionRecipes = "recipes"

type RecipeRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
}

func NewRecipeRepository(db *mongo.Database) *RecipeRepository {
	return &RecipeRepository{
		col:   db.Collection(collectionRecipes),
		users: db.Collection(collectionUsers),
	}
}

type recipeDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Ingredients  []string           `bson:"ingredients"`
	Instructions string             `bson:"instructions"`
	Image        string             `bson:"image,omitempty"`
	YoutubeLink  string             `bson:"youtubeLink,omitempty"`
	Author       primitive.ObjectID `bson:"author"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// authorDocument is the projection of a user joined into a recipe. It never
// decodes the email or password fields.
type authorDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	Name     string             `bson:"name,omitempty"`
}

// recipeView is a recipe document joined with its author by the read pipeline.
type recipeView struct {
	recipeDocument `bson:",inline"`
	AuthorInfo     []authorDocument `bson:"authorInfo"`
}

func (d *recipeDocument) toDomain(author *authorDocument) *domain.Recipe {
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	summary := &domain.AuthorSummary{ID: d.Author.Hex()}
	if author != nil {
		summary.Username = author.Username
		summary.Name = author.Name
	}

	return &domain.Recipe{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Ingredients:  ingredients,
		Instructions: d.Instructions,
		Image:        d.Image,
		YoutubeLink:  d.YoutubeLink,
		AuthorID:     d.Author.Hex(),
		Author:       summary,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (v *recipeView) toDomain() *domain.Recipe {
	var author *authorDocument
	if len(v.AuthorInfo) > 0 {
		author = &v.AuthorInfo[0]
	}
	return v.recipeDocument.toDomain(author)
}

// List returns recipes newest first. A non-empty search matches
// case-insensitively as a literal substring of the title, any ingredient or
// the instructions.
func (r *RecipeRepository) List(ctx context.Context, search string) ([]*domain.Recipe, error) {
	return r.aggregate(ctx, searchFilter(search), 0)
}

// FindByID returns nil without error when id is malformed or unknown.
func (r *RecipeRepository) FindByID(ctx context.Context, id string) (*domain.Recipe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	recipes, err := r.aggregate(ctx, bson.M{"_id": oid}, 1)
	if err != nil || len(recipes) == 0 {
		return nil, err
	}
	return recipes[0], nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) (*domain.Recipe, error) {
	authorOID, err := primitive.ObjectIDFromHex(recipe.AuthorID)
	if err != nil {
		return nil, &domain.ValidationError{Field: "author", Message: "is not a valid id"}
	}

	doc := recipeDocument{
		Title:        recipe.Title,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
		Image:        recipe.Image,
		YoutubeLink:  recipe.YoutubeLink,
		Author:       authorOID,
		CreatedAt:    recipe.CreatedAt,
	}

	insertCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(insertCtx, doc)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "insert recipe", Err: err}
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)

	return doc.toDomain(r.author(ctx, authorOID)), nil
}

// UpdateOwned applies upd in one FindOneAndUpdate filtered on id and author.
// The pre-image is used to report the replaced image.
func (r *RecipeRepository) UpdateOwned(ctx context.Context, id, authorID string, upd domain.RecipeUpdate) (*domain.Recipe, string, error) {
	filter, ok := ownedFilter(id, authorID)
	if !ok {
		return nil, "", nil
	}

	set := bson.M{
		"title":        upd.Title,
		"ingredients":  upd.Ingredients,
		"instructions": upd.Instructions,
		"youtubeLink":  upd.YoutubeLink,
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}

	updateCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var before recipeDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := r.col.FindOneAndUpdate(updateCtx, filter, bson.M{"$set": set}, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", nil
		}
		return nil, "", &domain.PersistenceError{Op: "update recipe", Err: err}
	}

	after := before
	after.Title = upd.Title
	after.Ingredients = upd.Ingredients
	after.Instructions = upd.Instructions
	after.YoutubeLink = upd.YoutubeLink

	replaced := ""
	if upd.Image != nil {
		replaced = before.Image
		after.Image = *upd.Image
	}

	return after.toDomain(r.author(ctx, after.Author)), replaced, nil
}

// DeleteOwned removes the recipe in one FindOneAndDelete filtered on id and
// author, returning the removed document.
func (r *RecipeRepository) DeleteOwned(ctx context.Context, id, authorID string) (*domain.Recipe, error) {
	filter, ok := ownedFilter(id, authorID)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var deleted recipeDocument
	if err := r.col.FindOneAndDelete(ctx, filter).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, &domain.PersistenceError{Op: "delete recipe", Err: err}
	}
	return deleted.toDomain(nil), nil
}

// EnsureIndexes creates the indexes used by listing and ownership checks.
func (r *RecipeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *RecipeRepository) aggregate(ctx context.Context, match bson.M, limit int64) ([]*domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorInfo"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "authorInfo.email", Value: 0},
			{Key: "authorInfo.password", Value: 0},
			{Key: "authorInfo.googleId", Value: 0},
		}}},
	)

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list recipes", Err: err}
	}
	defer cur.Close(ctx)

	var views []recipeView
	if err := cur.All(ctx, &views); err != nil {
		return nil, &domain.PersistenceError{Op: "decode recipes", Err: err}
	}

	recipes := make([]*domain.Recipe, 0, len(views))
	for i := range views {
		recipes = append(recipes, views[i].toDomain())
	}
	return recipes, nil
}

// author loads the public summary of a user. A failed lookup degrades to a
// summary carrying the id only.
func (r *RecipeRepository) author(ctx context.Context, oid primitive.ObjectID) *authorDocument {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc authorDocument
	opts := options.FindOne().SetProjection(bson.M{"username": 1, "name": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil
	}
	return &doc
}

func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": rx},
		bson.M{"ingredients": rx},
		bson.M{"instructions": rx},
	}}
}

// ownedFilter matches a recipe by id and author. ok is false when either id
// is malformed, in which case nothing can match.
func ownedFilter(id, authorID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "author": author}, true
}
