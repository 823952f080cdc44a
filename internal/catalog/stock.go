package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// DBTX is the subset of pgx executors the stock helpers need. Both pgxpool.Pool
// and pgx.Tx satisfy it, so callers can run stock mutations inside their own
// transaction boundary.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DecrementStock atomically subtracts qty from a physical product's stock.
// The guard is server-side: the UPDATE only matches rows with enough stock,
// so two concurrent decrements can never both pass the check. Returns
// shared.ErrNotFound for unknown products and shared.ErrInsufficientStock
// when the remaining quantity does not cover qty.
func DecrementStock(ctx context.Context, db DBTX, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("catalog: decrement quantity must be positive: %w", shared.ErrValidation)
	}
	tag, err := db.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND type = 'physical' AND is_active AND stock >= $2`, productID, qty)
	if err != nil {
		return fmt.Errorf("catalog: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var stock int
	err = db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 AND type = 'physical' AND is_active`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("catalog: product %s: %w", productID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("catalog: read stock: %w", err)
	}
	return fmt.Errorf("catalog: product %s has %d on hand, requested %d: %w", productID, stock, qty, shared.ErrInsufficientStock)
}

// IncrementStock atomically adds qty to a physical product's stock. There is
// no upper bound; unknown products yield shared.ErrNotFound.
func IncrementStock(ctx context.Context, db DBTX, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("catalog: increment quantity must be positive: %w", shared.ErrValidation)
	}
	tag, err := db.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 AND type = 'physical' AND is_active`, productID, qty)
	if err != nil {
		return fmt.Errorf("catalog: increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %s: %w", productID, shared.ErrNotFound)
	}
	return nil
}
