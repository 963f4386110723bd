package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/yourorg/stockroom/internal/domain"
)

func TestUser(t *testing.T) {
	valid := domain.UserInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"}
	if err := User(valid); err != nil {
		t.Fatalf("expected valid input to pass, got %v", err)
	}

	cases := []struct {
		name  string
		input domain.UserInput
	}{
		{"short name", domain.UserInput{Name: "A", Email: "alice@example.com", Password: "secret1"}},
		{"whitespace name", domain.UserInput{Name: "  a  ", Email: "alice@example.com", Password: "secret1"}},
		{"long name", domain.UserInput{Name: strings.Repeat("x", 101), Email: "alice@example.com", Password: "secret1"}},
		{"missing at", domain.UserInput{Name: "Alice", Email: "alice.example.com", Password: "secret1"}},
		{"missing dot", domain.UserInput{Name: "Alice", Email: "alice@example", Password: "secret1"}},
		{"space in email", domain.UserInput{Name: "Alice", Email: "al ice@example.com", Password: "secret1"}},
		{"short password", domain.UserInput{Name: "Alice", Email: "alice@example.com", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := User(tc.input); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	if err := Credentials("alice@example.com", "secret1"); err != nil {
		t.Fatalf("expected valid credentials to pass, got %v", err)
	}
	if err := Credentials("", "secret1"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing email, got %v", err)
	}
	if err := Credentials("alice@example.com", ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing password, got %v", err)
	}
}

func TestProduct(t *testing.T) {
	if err := Product(domain.ProductInput{Name: "Widget", Description: "a widget", Quantity: 3}); err != nil {
		t.Fatalf("expected valid product to pass, got %v", err)
	}

	cases := []struct {
		name  string
		input domain.ProductInput
	}{
		{"short name", domain.ProductInput{Name: "W"}},
		{"long name", domain.ProductInput{Name: strings.Repeat("x", 101)}},
		{"long description", domain.ProductInput{Name: "Widget", Description: strings.Repeat("x", 501)}},
		{"negative quantity", domain.ProductInput{Name: "Widget", Quantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Product(tc.input); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestProductUpdate(t *testing.T) {
	if err := ProductUpdate(domain.ProductUpdate{}); err != nil {
		t.Fatalf("expected empty update to pass, got %v", err)
	}

	name := "Widget"
	desc := "a widget"
	qty := int64(3)
	if err := ProductUpdate(domain.ProductUpdate{Name: &name, Description: &desc, Quantity: &qty}); err != nil {
		t.Fatalf("expected valid update to pass, got %v", err)
	}

	short := "W"
	if err := ProductUpdate(domain.ProductUpdate{Name: &short}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for short name, got %v", err)
	}
	long := strings.Repeat("x", 501)
	if err := ProductUpdate(domain.ProductUpdate{Description: &long}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for long description, got %v", err)
	}
	neg := int64(-1)
	if err := ProductUpdate(domain.ProductUpdate{Quantity: &neg}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative quantity, got %v", err)
	}
}
