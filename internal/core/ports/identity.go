package ports

import (
	"context"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// IdentityProvider drives the authorization-code flow of an external
// identity provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.FederatedProfile, error)
}

// StateStore issues single-use anti-forgery states for the login redirect.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}
