package ports

import (
	"context"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// UserRepository persists accounts. Lookups return domain.ErrUserNotFound
// when nothing matches; Create returns *domain.ConflictError when the
// username or email is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	FindByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error)
	LinkGoogleID(ctx context.Context, userID, googleID string) error
}
