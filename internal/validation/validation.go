// Package validation re-states the form contract the UI promises to enforce.
// The data layer trusts the UI but re-checks here at its own boundary.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/stockroom/internal/domain"
)

// ErrInvalid wraps every validation failure; the message after it is
// user-displayable.
var ErrInvalid = errors.New("invalid input")

const (
	minNameLen        = 2
	maxNameLen        = 100
	maxDescriptionLen = 500
	minPasswordLen    = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User checks a registration form: name 2-100 chars, valid email, password
// at least 6 chars.
func User(input domain.UserInput) error {
	name := strings.TrimSpace(input.Name)
	if len(name) < minNameLen {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalid, minNameLen)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: name must not exceed %d characters", ErrInvalid, maxNameLen)
	}
	if !emailPattern.MatchString(input.Email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalid)
	}
	if len(input.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalid, minPasswordLen)
	}
	return nil
}

// Credentials checks a login form: both fields present, nothing more. The
// stricter checks ran at registration time.
func Credentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalid)
	}
	return nil
}

// Product checks a product form: name 2-100 chars, description up to 500,
// quantity not negative.
func Product(input domain.ProductInput) error {
	name := strings.TrimSpace(input.Name)
	if len(name) < minNameLen {
		return fmt.Errorf("%w: product name must be at least %d characters", ErrInvalid, minNameLen)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: product name must not exceed %d characters", ErrInvalid, maxNameLen)
	}
	if len(input.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description must not exceed %d characters", ErrInvalid, maxDescriptionLen)
	}
	if input.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalid)
	}
	return nil
}

// ProductUpdate applies the same field rules to whichever fields a partial
// update supplies.
func ProductUpdate(upd domain.ProductUpdate) error {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < minNameLen {
			return fmt.Errorf("%w: product name must be at least %d characters", ErrInvalid, minNameLen)
		}
		if len(name) > maxNameLen {
			return fmt.Errorf("%w: product name must not exceed %d characters", ErrInvalid, maxNameLen)
		}
	}
	if upd.Description != nil && len(*upd.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description must not exceed %d characters", ErrInvalid, maxDescriptionLen)
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalid)
	}
	return nil
}
