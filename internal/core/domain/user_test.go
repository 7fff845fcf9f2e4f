package domain

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestUser_ComparePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &User{PasswordHash: string(hash)}

	if !u.ComparePassword("s3cret") {
		t.Fatalf("expected password to match")
	}
	if u.ComparePassword("wrong") {
		t.Fatalf("expected mismatch")
	}
}

func TestUser_ComparePassword_NoPassword(t *testing.T) {
	u := &User{GoogleID: "g-1"}
	if u.HasPassword() {
		t.Fatalf("federated user must not have a password")
	}
	if u.ComparePassword("") {
		t.Fatalf("empty hash must never match")
	}
}
