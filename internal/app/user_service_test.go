package app

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"docuchat/internal/repository"
)

func TestRegister(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))

	user, err := svc.Register(RegisterInput{Username: "alice", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected assigned user id")
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatalf("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if _, err := svc.Register(RegisterInput{Username: "alice", Password: "another-pass"}); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}

	if _, err := svc.Register(RegisterInput{Username: "bob", Password: "short"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}
