package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	GoogleID  string             `bson:"googleId,omitempty"`
	Name      string             `bson:"name,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Name:         d.Name,
		GoogleID:     d.GoogleID,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// Create inserts a user. Unique index violations are reported as
// *domain.ConflictError naming the offending field.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDocument{
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		GoogleID:  user.GoogleID,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.ConflictError{Field: duplicateField(err)}
		}
		return nil, &domain.PersistenceError{Op: "insert user", Err: err}
	}

	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
}

// FindByGoogleIDOrEmail prefers the account already linked to googleID over
// one that merely shares the email.
func (r *UserRepository) FindByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, bson.M{"googleId": googleID})
	if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}
	return r.findOne(ctx, bson.M{"email": email})
}

// LinkGoogleID attaches googleID to an account that has none yet. An account
// already linked to a Google subject is never overwritten.
func (r *UserRepository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, linkFilter(oid), bson.M{"$set": bson.M{"googleId": googleID}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &domain.ConflictError{Field: "googleId"}
		}
		return &domain.PersistenceError{Op: "link google id", Err: err}
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return &domain.PersistenceError{Op: "link google id", Err: err}
	}
	if n > 0 {
		return &domain.ConflictError{Field: "googleId"}
	}
	return domain.ErrUserNotFound
}

// linkFilter matches the account only while it carries no Google subject.
func linkFilter(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "googleId": bson.M{"$exists": false}}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, &domain.PersistenceError{Op: "find user", Err: err}
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique indexes backing username, email and
// Google account uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"googleId": bson.M{"$type": "string"}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// duplicateField extracts the conflicting field from a duplicate key error.
// The server names the violated index, e.g. "index: username_1 dup key", and
// only that token is trusted since the duplicated value may contain anything.
func duplicateField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				if field := indexField(e.Message); field != "" {
					return field
				}
			}
		}
	}
	if field := indexField(err.Error()); field != "" {
		return field
	}
	return "email"
}

func indexField(msg string) string {
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	switch name = strings.TrimSuffix(name, "_1"); name {
	case "username", "email", "googleId":
		return name
	}
	return ""
}
