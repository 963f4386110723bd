package domain

import "errors"

// Sentinel errors shared across the data layer. Layers wrap these with
// fmt.Errorf("...: %w", err) and callers branch with errors.Is.
var (
	// ErrNotFound covers lookups that match nothing, including rows owned
	// by a different user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned by registration when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials deliberately does not say whether the email or
	// the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated is raised before any storage call when a mutation
	// is attempted with no current session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNegativeQuantity guards the application boundary; the storage
	// CHECK constraint is the backstop.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")

	// ErrTooManyAttempts is returned when login attempts for an email are
	// throttled.
	ErrTooManyAttempts = errors.New("too many login attempts")
)
