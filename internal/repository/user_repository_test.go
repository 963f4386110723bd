package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/pkg/storage"
)

func newTestRepos(t *testing.T) (*SQLiteUserRepository, *SQLiteProductRepository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockroom-test.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := storage.New(path, log)
	t.Cleanup(func() { engine.Close() })

	// MinCost keeps the hashing fast under test.
	users := NewSQLiteUserRepository(engine, log, bcrypt.MinCost)
	products := NewSQLiteProductRepository(engine, log, 5)
	return users, products
}

func mustCreateUser(t *testing.T, users *SQLiteUserRepository, email string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), domain.UserInput{
		Name:     "Test User",
		Email:    email,
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func TestUserCreateAndGetByEmail(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	id, err := users.Create(ctx, domain.UserInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if user.ID != id || user.Name != "Alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "secret1" || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", user.PasswordHash)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	users, _ := newTestRepos(t)

	_, err := users.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserDuplicateEmailConstraint(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	mustCreateUser(t, users, "alice@example.com")
	_, err := users.Create(ctx, domain.UserInput{Name: "Other", Email: "alice@example.com", Password: "secret2"})
	if !errors.Is(err, storage.ErrConstraint) {
		t.Fatalf("expected constraint error for duplicate email, got %v", err)
	}

	all, err := users.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single row, got %d", len(all))
	}
}

func TestUserVerifyCredentials(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	mustCreateUser(t, users, "alice@example.com")

	user, err := users.VerifyCredentials(ctx, "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	// Wrong password and unknown email are indistinguishable.
	if _, err := users.VerifyCredentials(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong password, got %v", err)
	}
	if _, err := users.VerifyCredentials(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestUserGetAllNewestFirst(t *testing.T) {
	users, _ := newTestRepos(t)

	mustCreateUser(t, users, "first@example.com")
	mustCreateUser(t, users, "second@example.com")

	all, err := users.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	if all[0].Email != "second@example.com" {
		t.Fatalf("expected newest user first, got %s", all[0].Email)
	}
}
