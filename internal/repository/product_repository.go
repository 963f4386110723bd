package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/pkg/storage"
)

// DefaultLowStockThreshold is the quantity at or below which a product
// counts as low stock.
const DefaultLowStockThreshold = 5

// SQLiteProductRepository implements domain.ProductRepository on the storage
// engine. Every statement is scoped by userId; a row owned by someone else
// behaves exactly like a missing row.
type SQLiteProductRepository struct {
	engine            *storage.Engine
	logger            *slog.Logger
	lowStockThreshold int64
}

// NewSQLiteProductRepository creates a new product repository. A threshold
// of 0 or less falls back to DefaultLowStockThreshold.
func NewSQLiteProductRepository(engine *storage.Engine, logger *slog.Logger, lowStockThreshold int64) *SQLiteProductRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	return &SQLiteProductRepository{
		engine:            engine,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

// Create inserts a product for the given owner. New products are always
// active; quantity defaults to 0 via the zero value. Negative quantity is
// rejected here before the CHECK constraint ever sees it.
func (r *SQLiteProductRepository) Create(ctx context.Context, userID int64, input domain.ProductInput) (int64, error) {
	if input.Quantity < 0 {
		return 0, domain.ErrNegativeQuantity
	}

	query := `
		INSERT INTO products (name, description, quantity, active, userId)
		VALUES (?, ?, ?, 1, ?)
	`

	id, _, err := r.engine.Execute(ctx, query, input.Name, input.Description, input.Quantity, userID)
	if err != nil {
		r.logger.Error("failed to create product",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("create product: %w", err)
	}

	return id, nil
}

// List returns the user's products newest first, excluding soft-deleted rows
// unless includeInactive is set.
func (r *SQLiteProductRepository) List(ctx context.Context, userID int64, includeInactive bool) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, quantity, active, userId, createdAt
		FROM products
		WHERE userId = ?
	`
	if !includeInactive {
		query += " AND active = 1"
	}
	query += " ORDER BY createdAt DESC, id DESC"

	rows, err := r.engine.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list products",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// GetByID retrieves a single product scoped by both id and owner.
// ErrNotFound covers absence and foreign ownership alike.
func (r *SQLiteProductRepository) GetByID(ctx context.Context, id, userID int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, quantity, active, userId, createdAt
		FROM products
		WHERE id = ? AND userId = ?
	`

	rows, err := r.engine.Query(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		return nil, domain.ErrNotFound
	}

	product, err := scanProduct(rows)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// Update touches only the supplied fields. Zero supplied fields is a no-op
// returning (false, nil); true means exactly one row matching (id, userId)
// was affected.
func (r *SQLiteProductRepository) Update(ctx context.Context, id, userID int64, upd domain.ProductUpdate) (bool, error) {
	if upd.IsEmpty() {
		return false, nil
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return false, domain.ErrNegativeQuantity
	}

	var sets []string
	var args []any

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *upd.Quantity)
	}
	if upd.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*upd.Active))
	}

	args = append(args, id, userID)
	query := fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = ? AND userId = ?
	`, strings.Join(sets, ", "))

	_, affected, err := r.engine.Execute(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update product",
			slog.Int64("id", id),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("update product: %w", err)
	}

	return affected > 0, nil
}

// SoftDelete clears the active flag for the scoped row. A second call on the
// same row reports false: the row no longer changes.
func (r *SQLiteProductRepository) SoftDelete(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		UPDATE products
		SET active = 0
		WHERE id = ? AND userId = ? AND active = 1
	`

	_, affected, err := r.engine.Execute(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("soft delete product: %w", err)
	}

	return affected > 0, nil
}

// Delete permanently removes the scoped row. Not wired to the user-facing
// delete path; the purge worker is its caller.
func (r *SQLiteProductRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		DELETE FROM products
		WHERE id = ? AND userId = ?
	`

	_, affected, err := r.engine.Execute(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	return affected > 0, nil
}

// Stats computes the aggregate counts in a single query. LowStock counts
// rows at or below the threshold regardless of the active flag.
func (r *SQLiteProductRepository) Stats(ctx context.Context, userID int64) (*domain.ProductStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN active = 1 THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN quantity <= ? THEN 1 ELSE 0 END), 0) AS lowStock
		FROM products
		WHERE userId = ?
	`

	rows, err := r.engine.Query(ctx, query, r.lowStockThreshold, userID)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.ProductStats{}
	if rows.Next() {
		if err := rows.Scan(&stats.Total, &stats.Active, &stats.LowStock); err != nil {
			return nil, fmt.Errorf("product stats: %w", err)
		}
	}
	return stats, rows.Err()
}

// PurgeInactive permanently removes soft-deleted rows created before the
// cutoff. The schema records no deletion time, so retention is keyed off
// createdAt.
func (r *SQLiteProductRepository) PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM products
		WHERE active = 0 AND createdAt < ?
	`

	_, affected, err := r.engine.Execute(ctx, query, formatTimestamp(olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge inactive products: %w", err)
	}

	return affected, nil
}

func scanProduct(rows rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var active int64
	var createdAt string

	if err := rows.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Quantity,
		&active,
		&product.UserID,
		&createdAt,
	); err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}

	product.Active = active != 0
	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = ts
	return product, nil
}
