package domain

import (
	"context"
	"time"
)

// User represents a registered account
type User struct {
	ID           int64
	Name         string
	Email        string // Unique email address, case-sensitive as stored
	PasswordHash string // Bcrypt hashed password (never plaintext)
	CreatedAt    time.Time
}

// UserInput carries the fields supplied by a registration form
type UserInput struct {
	Name     string
	Email    string
	Password string
}

// UserRepository defines data access for users.
//
// Users are never updated or deleted: there is no cascade for products, so
// removing a user would orphan their rows.
type UserRepository interface {
	// Create hashes the password and inserts the row, returning the new id.
	// Uniqueness is not pre-checked here; a duplicate email surfaces as a
	// storage constraint failure.
	Create(ctx context.Context, input UserInput) (int64, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetAll returns all users ordered by creation time descending.
	// Diagnostic use only.
	GetAll(ctx context.Context) ([]*User, error)
	// VerifyCredentials returns the user only on an exact password match.
	// Unknown email and wrong password are both ErrNotFound so callers
	// cannot tell which half of the pair failed.
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
}
