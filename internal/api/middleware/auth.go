package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextUserID = "user_id"
	ContextUser   = "user"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// UserFinder loads the account behind a verified token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth verifies the bearer token, loads its user and injects both into the
// context. Every authentication failure yields the same 401.
func Auth(tokens TokenVerifier, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthenticated()
			}

			userID, err := tokens.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthenticated()
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return unauthenticated()
				}
				return err
			}

			c.Set(ContextUserID, user.ID)
			c.Set(ContextUser, user)

			return next(c)
		}
	}
}

func unauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
}
