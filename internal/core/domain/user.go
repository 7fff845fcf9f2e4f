package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User models an account that can own recipes. PasswordHash is empty for
// accounts created through federated login; GoogleID is empty for accounts
// that never signed in with Google.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	GoogleID     string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ComparePassword reports whether plaintext matches the stored hash.
func (u *User) ComparePassword(plaintext string) bool {
	if !u.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// FederatedProfile is the identity returned by an external provider.
type FederatedProfile struct {
	Subject     string
	Email       string
	DisplayName string
}
