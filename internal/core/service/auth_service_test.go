package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	seq       int
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, &domain.ConflictError{Field: "username"}
		}
		if u.Email == user.Email {
			return nil, &domain.ConflictError{Field: "email"}
		}
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("u%d", r.seq)
	r.users[stored.ID] = cloneUser(stored)
	return stored, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByGoogleIDOrEmail(_ context.Context, googleID, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.GoogleID == googleID || u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) LinkGoogleID(_ context.Context, userID, googleID string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.GoogleID = googleID
	return nil
}

func newTestAuthService(repo *stubUserRepo) (*AuthService, *TokenService) {
	tokens := NewTokenService("secret", time.Hour)
	return NewAuthService(repo, tokens, zerolog.Nop()), tokens
}

func TestAuthService_RegisterLocal_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestAuthService(repo)

	res, err := svc.RegisterLocal(context.Background(), "alice", "Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("RegisterLocal returned error: %v", err)
	}
	if res.User.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if !res.User.ComparePassword("pass123") {
		t.Fatalf("stored hash does not match password")
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}

	userID, err := tokens.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if userID != res.User.ID {
		t.Fatalf("token subject %q does not match user %q", userID, res.User.ID)
	}
}

func TestAuthService_RegisterLocal_Validation(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	cases := []struct {
		username, email, password, field string
	}{
		{"", "a@example.com", "pw", "username"},
		{"alice", " ", "pw", "email"},
		{"alice", "a@example.com", "", "password"},
		{"alice", "a@example.com", strings.Repeat("p", 73), "password"},
	}
	for _, tc := range cases {
		_, err := svc.RegisterLocal(context.Background(), tc.username, tc.email, tc.password)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("expected validation error on %s, got %v", tc.field, err)
		}
	}
}

func TestAuthService_RegisterLocal_PasswordLengthBoundary(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.RegisterLocal(context.Background(), "alice", "a@example.com", strings.Repeat("p", 72)); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}

	_, err := svc.RegisterLocal(context.Background(), "bob", "b@example.com", strings.Repeat("p", 80))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected only the first user to be stored, got %d", len(repo.users))
	}
}

func TestAuthService_RegisterLocal_Conflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.RegisterLocal(context.Background(), "bob", "bob@example.com", "pw"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.RegisterLocal(context.Background(), "bob", "other@example.com", "pw")
	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}

	_, err = svc.RegisterLocal(context.Background(), "robert", "bob@example.com", "pw")
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(repo.users))
	}
}

func TestAuthService_AuthenticateLocal(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	registered, err := svc.RegisterLocal(context.Background(), "carol", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.AuthenticateLocal(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != registered.User.ID || res.Token == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := svc.AuthenticateLocal(context.Background(), "carol@example.com", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.AuthenticateLocal(context.Background(), "ghost@example.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_AuthenticateLocal_FederatedOnlyAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	if _, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{Subject: "g-1", Email: "dana@example.com"}); err != nil {
		t.Fatalf("federated login failed: %v", err)
	}

	if _, err := svc.AuthenticateLocal(context.Background(), "dana@example.com", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.AuthenticateLocal(context.Background(), "dana@example.com", "anything"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_AuthenticateFederated_CreatesUser(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	res, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{
		Subject: "g-1", Email: "erin@example.com", DisplayName: "Erin",
	})
	if err != nil {
		t.Fatalf("AuthenticateFederated returned error: %v", err)
	}
	if res.User.Username != "erin" || res.User.GoogleID != "g-1" || res.User.Name != "Erin" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.User.HasPassword() {
		t.Fatalf("federated user must not have a password")
	}

	again, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{Subject: "g-1", Email: "erin@example.com"})
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if again.User.ID != res.User.ID || len(repo.users) != 1 {
		t.Fatalf("expected the same account to be reused")
	}
}

func TestAuthService_AuthenticateFederated_LinksExistingAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	local, _ := svc.RegisterLocal(context.Background(), "frank", "frank@example.com", "pw")

	res, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{Subject: "g-2", Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("AuthenticateFederated returned error: %v", err)
	}
	if res.User.ID != local.User.ID {
		t.Fatalf("expected existing account to be linked")
	}
	if repo.users[local.User.ID].GoogleID != "g-2" {
		t.Fatalf("google id not persisted")
	}
	if _, err := svc.AuthenticateLocal(context.Background(), "frank@example.com", "pw"); err != nil {
		t.Fatalf("local login must keep working after linking: %v", err)
	}
}

func TestAuthService_AuthenticateFederated_UsernameCollision(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestAuthService(repo)

	_, _ = svc.RegisterLocal(context.Background(), "gina", "gina@other.com", "pw")

	res, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{Subject: "g-3", Email: "gina@example.com"})
	if err != nil {
		t.Fatalf("AuthenticateFederated returned error: %v", err)
	}
	if res.User.Username == "gina" || len(res.User.Username) != len("gina_")+4 {
		t.Fatalf("expected suffixed username, got %q", res.User.Username)
	}
}

func TestAuthService_AuthenticateFederated_PersistenceFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = &domain.PersistenceError{Op: "insert user", Err: errors.New("boom")}
	svc, _ := newTestAuthService(repo)

	_, err := svc.AuthenticateFederated(context.Background(), domain.FederatedProfile{Subject: "g-4", Email: "hank@example.com"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
