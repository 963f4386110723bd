package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/stockroom/internal/domain"
)

func TestProductCreateDefaultsAndGetByID(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	id, err := products.Create(ctx, userID, domain.ProductInput{Name: "Widget", Description: "a widget"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	p, err := products.GetByID(ctx, id, userID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if p.Name != "Widget" || p.Description != "a widget" {
		t.Fatalf("unexpected fields: %+v", p)
	}
	if p.Quantity != 0 {
		t.Fatalf("expected quantity to default to 0, got %d", p.Quantity)
	}
	if !p.Active {
		t.Fatalf("expected new product to be active")
	}
	if p.UserID != userID {
		t.Fatalf("expected owner %d, got %d", userID, p.UserID)
	}
}

func TestProductOwnershipScoping(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	alice := mustCreateUser(t, users, "alice@example.com")
	bob := mustCreateUser(t, users, "bob@example.com")

	id, err := products.Create(ctx, alice, domain.ProductInput{Name: "Widget"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := products.GetByID(ctx, id, bob); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected foreign row to look absent, got %v", err)
	}

	list, err := products.List(ctx, bob, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no products for bob, got %d", len(list))
	}

	name := "Hijacked"
	changed, err := products.Update(ctx, id, bob, domain.ProductUpdate{Name: &name})
	if err != nil || changed {
		t.Fatalf("expected cross-user update to be a no-op, got changed=%v err=%v", changed, err)
	}

	deleted, err := products.SoftDelete(ctx, id, bob)
	if err != nil || deleted {
		t.Fatalf("expected cross-user soft delete to be a no-op, got deleted=%v err=%v", deleted, err)
	}

	// Alice still sees her row untouched.
	p, err := products.GetByID(ctx, id, alice)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if p.Name != "Widget" || !p.Active {
		t.Fatalf("row was mutated across users: %+v", p)
	}
}

func TestProductSoftDeleteIdempotent(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	id, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Widget"})

	deleted, err := products.SoftDelete(ctx, id, userID)
	if err != nil || !deleted {
		t.Fatalf("expected first soft delete to succeed, got deleted=%v err=%v", deleted, err)
	}

	p, err := products.GetByID(ctx, id, userID)
	if err != nil {
		t.Fatalf("soft-deleted row should still exist: %v", err)
	}
	if p.Active {
		t.Fatalf("expected active=false after soft delete")
	}

	deleted, err = products.SoftDelete(ctx, id, userID)
	if err != nil {
		t.Fatalf("second soft delete errored: %v", err)
	}
	if deleted {
		t.Fatalf("expected second soft delete to affect no rows")
	}
}

func TestProductListFiltersInactive(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	keep, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Keep"})
	drop, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Drop"})
	if _, err := products.SoftDelete(ctx, drop, userID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	list, err := products.List(ctx, userID, false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != keep {
		t.Fatalf("expected only the active product, got %+v", list)
	}

	list, err = products.List(ctx, userID, true)
	if err != nil {
		t.Fatalf("list including inactive failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected both rows with includeInactive, got %d", len(list))
	}
	// Newest first.
	if list[0].ID != drop {
		t.Fatalf("expected newest product first, got id=%d", list[0].ID)
	}
}

func TestProductEmptyUpdateIsNoOp(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	id, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Widget", Quantity: 3})

	changed, err := products.Update(ctx, id, userID, domain.ProductUpdate{})
	if err != nil {
		t.Fatalf("empty update errored: %v", err)
	}
	if changed {
		t.Fatalf("expected empty update to report false")
	}

	p, _ := products.GetByID(ctx, id, userID)
	if p.Name != "Widget" || p.Quantity != 3 || !p.Active {
		t.Fatalf("expected row unchanged, got %+v", p)
	}
}

func TestProductPartialUpdate(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	id, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Widget", Description: "desc", Quantity: 3})

	qty := int64(7)
	changed, err := products.Update(ctx, id, userID, domain.ProductUpdate{Quantity: &qty})
	if err != nil || !changed {
		t.Fatalf("expected quantity update to apply, got changed=%v err=%v", changed, err)
	}

	p, _ := products.GetByID(ctx, id, userID)
	if p.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", p.Quantity)
	}
	if p.Name != "Widget" || p.Description != "desc" {
		t.Fatalf("untouched fields changed: %+v", p)
	}
}

func TestProductNegativeQuantityRejected(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	if _, err := products.Create(ctx, userID, domain.ProductInput{Name: "Widget", Quantity: -1}); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity on create, got %v", err)
	}

	id, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Widget"})
	bad := int64(-5)
	if _, err := products.Update(ctx, id, userID, domain.ProductUpdate{Quantity: &bad}); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity on update, got %v", err)
	}
}

func TestProductStats(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	products.Create(ctx, userID, domain.ProductInput{Name: "Low", Quantity: 2})
	products.Create(ctx, userID, domain.ProductInput{Name: "Mid", Quantity: 8})
	c, _ := products.Create(ctx, userID, domain.ProductInput{Name: "High", Quantity: 20})
	if _, err := products.SoftDelete(ctx, c, userID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	stats, err := products.Stats(ctx, userID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Active != 2 || stats.LowStock != 1 {
		t.Fatalf("expected {3 2 1}, got %+v", stats)
	}
}

func TestProductStatsEmpty(t *testing.T) {
	users, products := newTestRepos(t)
	userID := mustCreateUser(t, users, "alice@example.com")

	stats, err := products.Stats(context.Background(), userID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 0 || stats.Active != 0 || stats.LowStock != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestProductHardDelete(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	id, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Widget"})

	deleted, err := products.Delete(ctx, id, userID)
	if err != nil || !deleted {
		t.Fatalf("expected hard delete to succeed, got deleted=%v err=%v", deleted, err)
	}
	if _, err := products.GetByID(ctx, id, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected row gone after hard delete, got %v", err)
	}
	deleted, err = products.Delete(ctx, id, userID)
	if err != nil || deleted {
		t.Fatalf("expected second hard delete to affect no rows, got deleted=%v err=%v", deleted, err)
	}
}

func TestProductPurgeInactive(t *testing.T) {
	users, products := newTestRepos(t)
	ctx := context.Background()
	userID := mustCreateUser(t, users, "alice@example.com")

	keep, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Keep"})
	drop, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Drop"})
	if _, err := products.SoftDelete(ctx, drop, userID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// Cutoff in the future: everything inactive qualifies.
	removed, err := products.PurgeInactive(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged row, got %d", removed)
	}

	list, err := products.List(ctx, userID, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != keep {
		t.Fatalf("expected only the active product to survive, got %+v", list)
	}
}
