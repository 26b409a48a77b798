package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"loan-approval-service/internal/repository"
	"loan-approval-service/internal/testutil"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := testutil.OpenInMemoryDB(t, t.Name())
	s := NewUserService(repository.NewUserRepository(db))
	s.cost = bcrypt.MinCost
	return s
}

func TestSignup_HashesPassword(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	user, err := s.Signup(ctx, " Alice ", "alice@example.com", "pa55word")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.ID == 0 || user.Name != "Alice" || user.Role != "user" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "pa55word" {
		t.Fatalf("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pa55word")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	if _, err := s.Signup(ctx, "Alice", "alice@example.com", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Signup(ctx, "Alicia", "alice@example.com", "two"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestSignup_MissingFields(t *testing.T) {
	s := newUserService(t)
	if _, err := s.Signup(context.Background(), "Bob", "  ", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	created, err := s.Signup(ctx, "Alice", "alice@example.com", "pa55word")
	if err != nil {
		t.Fatal(err)
	}

	user, err := s.Login(ctx, "alice@example.com", "pa55word")
	if err != nil || user.ID != created.ID {
		t.Fatalf("Login: %+v %v", user, err)
	}
	if _, err := s.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "pa55word"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}

	got, err := s.GetUserByID(ctx, created.ID)
	if err != nil || got.Email != "alice@example.com" {
		t.Fatalf("GetUserByID: %+v %v", got, err)
	}
}

func TestSignup_LongInputs(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	if _, err := s.Signup(ctx, "Alice", "alice@example.com", strings.Repeat("p", 80)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("80-byte password: %v", err)
	}
	if _, err := s.Signup(ctx, strings.Repeat("n", 101), "alice@example.com", "pw"); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("long name: %v", err)
	}
	if _, err := s.Signup(ctx, "Alice", strings.Repeat("e", 250)+"@x.io", "pw"); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("long email: %v", err)
	}
	// Multi-byte names are counted in characters.
	if _, err := s.Signup(ctx, strings.Repeat("é", 100), "alice@example.com", strings.Repeat("p", 72)); err != nil {
		t.Fatalf("limits should be inclusive: %v", err)
	}
}

func TestSignup_EmailIgnoresCase(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	created, err := s.Signup(ctx, "Alice", " Alice@Example.COM ", "pa55word")
	if err != nil {
		t.Fatal(err)
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if _, err := s.Signup(ctx, "Alicia", "ALICE@example.com", "two"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	user, err := s.Login(ctx, "aLiCe@EXAMPLE.com", "pa55word")
	if err != nil || user.ID != created.ID {
		t.Fatalf("mixed-case Login: %+v %v", user, err)
	}
}
