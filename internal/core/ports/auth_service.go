package ports

import (
	"context"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// AuthResult is returned by every successful login or registration.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService interface {
	RegisterLocal(ctx context.Context, username, email, password string) (*AuthResult, error)
	AuthenticateLocal(ctx context.Context, email, password string) (*AuthResult, error)
	AuthenticateFederated(ctx context.Context, profile domain.FederatedProfile) (*AuthResult, error)
}
