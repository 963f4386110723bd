package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/internal/repository"
	"github.com/yourorg/stockroom/pkg/storage"
)

func newTestProducts(t *testing.T) (*repository.SQLiteProductRepository, int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockroom-test.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := storage.New(path, log)
	t.Cleanup(func() { engine.Close() })

	users := repository.NewSQLiteUserRepository(engine, log, bcrypt.MinCost)
	userID, err := users.Create(context.Background(), domain.UserInput{
		Name:     "Test User",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return repository.NewSQLiteProductRepository(engine, log, 5), userID
}

func TestRunOncePurgesAgedInactive(t *testing.T) {
	products, userID := newTestProducts(t)
	ctx := context.Background()

	keep, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Keep"})
	drop, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Drop"})
	if _, err := products.SoftDelete(ctx, drop, userID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// Negative retention puts the cutoff in the future, so freshly deleted
	// rows qualify despite second-resolution timestamps.
	w := NewPurgeWorker(products, nil, time.Hour, -2*time.Second)
	removed, err := w.RunOnce(ctx)
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

func TestRunOnceRespectsRetention(t *testing.T) {
	products, userID := newTestProducts(t)
	ctx := context.Background()

	drop, _ := products.Create(ctx, userID, domain.ProductInput{Name: "Drop"})
	if _, err := products.SoftDelete(ctx, drop, userID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// A long retention keeps the cutoff well in the past: nothing qualifies.
	w := NewPurgeWorker(products, nil, time.Hour, 30*24*time.Hour)
	removed, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no purged rows inside retention, got %d", removed)
	}

	list, err := products.List(ctx, userID, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected the row to survive, got %+v", list)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	products, _ := newTestProducts(t)

	w := NewPurgeWorker(products, nil, 10*time.Millisecond, -2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}
