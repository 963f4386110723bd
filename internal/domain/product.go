package domain

import (
	"context"
	"time"
)

// Product represents an inventory item owned by a single user
type Product struct {
	ID          int64
	Name        string
	Description string
	Quantity    int64
	Active      bool // false means soft-deleted; the row persists
	UserID      int64
	CreatedAt   time.Time
}

// ProductInput carries the fields supplied by a product form.
// Quantity defaults to 0 and new products are always created active.
type ProductInput struct {
	Name        string
	Description string
	Quantity    int64
}

// ProductUpdate is a tagged partial update: nil fields are left untouched.
// An update with no fields set is a distinct no-op branch, not an error.
type ProductUpdate struct {
	Name        *string
	Description *string
	Quantity    *int64
	Active      *bool
}

// IsEmpty reports whether no fields were supplied
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Quantity == nil && u.Active == nil
}

// ProductStats holds aggregate counts for one user's products.
// LowStock counts rows at or below the low-stock threshold regardless of
// their active flag.
type ProductStats struct {
	Total    int64
	Active   int64
	LowStock int64
}

// ProductRepository defines data access for products.
//
// Every read and write is scoped by (id, userID): a row owned by another
// user is indistinguishable from an absent row. That is the authorization
// boundary, not a lookup optimization.
type ProductRepository interface {
	Create(ctx context.Context, userID int64, input ProductInput) (int64, error)
	// List returns the user's products ordered by creation time descending,
	// excluding soft-deleted rows unless includeInactive is set.
	List(ctx context.Context, userID int64, includeInactive bool) ([]*Product, error)
	GetByID(ctx context.Context, id, userID int64) (*Product, error)
	// Update applies the supplied fields only. Returns false with no error
	// when the update is empty or no row matched (id, userID).
	Update(ctx context.Context, id, userID int64, upd ProductUpdate) (bool, error)
	// SoftDelete clears the active flag; the row persists.
	SoftDelete(ctx context.Context, id, userID int64) (bool, error)
	// Delete permanently removes the row. Administrative cleanup only; the
	// user-facing delete path is SoftDelete.
	Delete(ctx context.Context, id, userID int64) (bool, error)
	// Stats computes aggregate counts in a single query.
	Stats(ctx context.Context, userID int64) (*ProductStats, error)
	// PurgeInactive permanently removes soft-deleted rows created before
	// the cutoff, across all users. Returns the number of rows removed.
	PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error)
}
