package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/recipehub/recipe-api/internal/core/domain"
	"github.com/recipehub/recipe-api/internal/core/ports"
	"github.com/recipehub/recipe-api/internal/pkg/metrics"
)

const (
	passwordCost = 10
	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
	// usernameAttempts bounds the suffix retries when a federated username collides.
	usernameAttempts = 3
)

// AuthService implements local registration, local login and federated login.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	logger zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

func (s *AuthService) RegisterLocal(ctx context.Context, username, email, password string) (*ports.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	switch {
	case username == "":
		return nil, &domain.ValidationError{Field: "username", Message: "is required"}
	case email == "":
		return nil, &domain.ValidationError{Field: "email", Message: "is required"}
	case password == "":
		return nil, &domain.ValidationError{Field: "password", Message: "is required"}
	case len(password) > maxPasswordBytes:
		return nil, passwordTooLong()
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failed").Inc()
		if existing.Username == username {
			return nil, &domain.ConflictError{Field: "username"}
		}
		return nil, &domain.ConflictError{Field: "email"}
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, passwordTooLong()
		}
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	result, err := s.issue(created)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "ok").Inc()
	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return result, nil
}

// AuthenticateLocal verifies email and password. A missing account returns
// domain.ErrUserNotFound; a wrong password or a federated-only account
// returns domain.ErrInvalidCredentials.
func (s *AuthService) AuthenticateLocal(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("local", "failed").Inc()
		}
		return nil, err
	}

	if !user.ComparePassword(password) {
		metrics.AuthAttemptsTotal.WithLabelValues("local", "failed").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.AuthAttemptsTotal.WithLabelValues("local", "ok").Inc()
	return s.issue(user)
}

// AuthenticateFederated logs in the account linked to the provider subject,
// links the subject to an existing account with the same email, or creates a
// new account when neither exists.
func (s *AuthService) AuthenticateFederated(ctx context.Context, profile domain.FederatedProfile) (*ports.AuthResult, error) {
	email := normalizeEmail(profile.Email)
	if profile.Subject == "" {
		return nil, &domain.ValidationError{Field: "subject", Message: "is required"}
	}
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Message: "is required"}
	}

	user, err := s.users.FindByGoogleIDOrEmail(ctx, profile.Subject, email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			if err := s.users.LinkGoogleID(ctx, user.ID, profile.Subject); err != nil {
				return nil, err
			}
			user.GoogleID = profile.Subject
			s.logger.Info().Str("user_id", user.ID).Msg("google account linked")
		}
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.createFederated(ctx, profile, email)
		if err != nil {
			metrics.AuthAttemptsTotal.WithLabelValues("google", "failed").Inc()
			return nil, err
		}
	default:
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("google", "ok").Inc()
	return s.issue(user)
}

func (s *AuthService) createFederated(ctx context.Context, profile domain.FederatedProfile, email string) (*domain.User, error) {
	base := usernameFromEmail(email)
	username := base

	var lastErr error
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		created, err := s.users.Create(ctx, &domain.User{
			Username:  username,
			Email:     email,
			Name:      profile.DisplayName,
			GoogleID:  profile.Subject,
			CreatedAt: time.Now().UTC(),
		})
		if err == nil {
			s.logger.Info().Str("user_id", created.ID).Msg("user created from google profile")
			return created, nil
		}

		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != "username" {
			return nil, err
		}
		lastErr = err
		username = base + "_" + uuid.NewString()[:4]
	}
	return nil, lastErr
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Token: token}, nil
}

func passwordTooLong() error {
	return &domain.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "user"
	}
	return local
}
