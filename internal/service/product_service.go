package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/internal/observability/metrics"
	"github.com/yourorg/stockroom/internal/security/audit"
	"github.com/yourorg/stockroom/internal/validation"
	"github.com/yourorg/stockroom/pkg/cache"
)

const statsCacheTTL = 30 * time.Second

// ProductService is the per-session view over the product repository that UI
// consumers talk to. It keeps a cached list that is re-queried after every
// successful mutation, so the visible list always matches storage after a
// round trip. Mutations without an authenticated user fail with
// domain.ErrUnauthenticated before storage is touched.
type ProductService struct {
	products domain.ProductRepository
	auth     *AuthService
	stats    *cache.Cache
	audit    *audit.Logger
	logger   *slog.Logger

	mu              sync.RWMutex
	items           []domain.Product
	includeInactive bool
	loading         bool
	lastErr         string
}

// NewProductService creates a product facade bound to the given session.
func NewProductService(
	products domain.ProductRepository,
	auth *AuthService,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &ProductService{
		products: products,
		auth:     auth,
		stats:    cache.New(),
		audit:    auditLog,
		logger:   logger,
	}
}

// Load re-queries the product list for the session user and replaces the
// cached slice. includeInactive persists for subsequent reloads.
func (s *ProductService) Load(ctx context.Context, includeInactive bool) error {
	userID, err := s.requireUser()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.loading = true
	s.includeInactive = includeInactive
	s.mu.Unlock()

	list, err := s.products.List(ctx, userID, includeInactive)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = "Failed to load products"
		return fmt.Errorf("load products: %w", err)
	}

	items := make([]domain.Product, 0, len(list))
	for _, p := range list {
		items = append(items, *p)
	}
	s.items = items
	s.lastErr = ""
	return nil
}

// Products returns a copy of the last loaded list.
func (s *ProductService) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether an operation is in flight.
func (s *ProductService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the user-displayable message of the last failed operation.
// Cleared only by a subsequent successful operation.
func (s *ProductService) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Add creates a product for the session user, then reloads the list.
func (s *ProductService) Add(ctx context.Context, input domain.ProductInput) (int64, error) {
	userID, err := s.requireUser()
	if err != nil {
		return 0, err
	}
	if err := validation.Product(input); err != nil {
		return 0, err
	}

	id, err := s.products.Create(ctx, userID, input)
	if err != nil {
		s.setErr("Failed to add product")
		metrics.ObserveProductMutation("add", "error")
		return 0, fmt.Errorf("add product: %w", err)
	}

	metrics.ObserveProductMutation("add", "ok")
	s.afterMutation(ctx, userID)
	return id, nil
}

// Update applies a partial update to the session user's product, reloading
// the list when a row changed. An empty update returns false with no error.
func (s *ProductService) Update(ctx context.Context, id int64, upd domain.ProductUpdate) (bool, error) {
	userID, err := s.requireUser()
	if err != nil {
		return false, err
	}
	if err := validation.ProductUpdate(upd); err != nil {
		return false, err
	}

	changed, err := s.products.Update(ctx, id, userID, upd)
	if err != nil {
		s.setErr("Failed to update product")
		metrics.ObserveProductMutation("update", "error")
		return false, fmt.Errorf("update product: %w", err)
	}

	metrics.ObserveProductMutation("update", "ok")
	if changed {
		s.afterMutation(ctx, userID)
	}
	return changed, nil
}

// Delete is the canonical user-facing delete: a soft delete. The row keeps
// existing with active=false; permanent removal is the purge worker's job.
func (s *ProductService) Delete(ctx context.Context, id int64) (bool, error) {
	userID, err := s.requireUser()
	if err != nil {
		return false, err
	}

	deleted, err := s.products.SoftDelete(ctx, id, userID)
	if err != nil {
		s.setErr("Failed to delete product")
		metrics.ObserveProductMutation("delete", "error")
		s.audit.LogProductDelete(ctx, userID, id, "error", err.Error())
		return false, fmt.Errorf("delete product: %w", err)
	}

	metrics.ObserveProductMutation("delete", "ok")
	s.audit.LogProductDelete(ctx, userID, id, "ok", "soft")
	if deleted {
		s.afterMutation(ctx, userID)
	}
	return deleted, nil
}

// Get retrieves one of the session user's products. A row owned by someone
// else is a not-found, indistinguishable from a missing id.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	userID, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.setErr("Failed to get product")
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// Stats returns aggregate counts for the session user, cached briefly and
// invalidated by every successful mutation.
func (s *ProductService) Stats(ctx context.Context) (*domain.ProductStats, error) {
	userID, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	key := statsKey(userID)
	if cached, ok := s.stats.Get(key); ok {
		stats := cached.(domain.ProductStats)
		return &stats, nil
	}

	stats, err := s.products.Stats(ctx, userID)
	if err != nil {
		s.setErr("Failed to get product statistics")
		return nil, fmt.Errorf("product stats: %w", err)
	}

	s.stats.Set(key, *stats, statsCacheTTL)
	s.clearErr()
	return stats, nil
}

// afterMutation invalidates derived state and reloads the list so callers
// observe their own write.
func (s *ProductService) afterMutation(ctx context.Context, userID int64) {
	s.stats.Delete(statsKey(userID))

	s.mu.RLock()
	includeInactive := s.includeInactive
	s.mu.RUnlock()

	if err := s.Load(ctx, includeInactive); err != nil {
		s.logger.Error("failed to reload products after mutation",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) requireUser() (int64, error) {
	user, ok := s.auth.CurrentUser()
	if !ok {
		return 0, domain.ErrUnauthenticated
	}
	return user.ID, nil
}

func (s *ProductService) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *ProductService) clearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func statsKey(userID int64) string {
	return fmt.Sprintf("stats:%d", userID)
}
