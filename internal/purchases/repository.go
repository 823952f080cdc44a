package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for purchases.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a purchase transaction.
type TxRepository interface {
	SupplierExists(ctx context.Context, supplierID uuid.UUID) error
	InsertPurchase(ctx context.Context, purchase Purchase) (uuid.UUID, error)
	InsertDetail(ctx context.Context, detail PurchaseDetail) error
	IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (t *txRepo) SupplierExists(ctx context.Context, supplierID uuid.UUID) error {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND is_active)`, supplierID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("purchases: supplier lookup: %w", err)
	}
	if !exists {
		return fmt.Errorf("purchases: supplier %s: %w", supplierID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) InsertPurchase(ctx context.Context, purchase Purchase) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO purchases (supplier_id, user_id, invoice_number, total, status, purchase_date, notes)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, '')) RETURNING id`,
		purchase.SupplierID, purchase.UserID, purchase.InvoiceNumber, purchase.Total, purchase.Status, purchase.PurchaseDate, purchase.Notes).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("purchases: insert purchase: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertDetail(ctx context.Context, detail PurchaseDetail) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO purchase_details (purchase_id, product_id, quantity, unit_cost, subtotal) VALUES ($1, $2, $3, $4, $5)`,
		detail.PurchaseID, detail.ProductID, detail.Quantity, detail.UnitCost, detail.Subtotal)
	if err != nil {
		return fmt.Errorf("purchases: insert detail: %w", err)
	}
	return nil
}

func (t *txRepo) IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return catalog.IncrementStock(ctx, t.tx, productID, qty)
}

// GetPurchase returns the hydrated purchase with details.
func (r *Repository) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_id, user_id, COALESCE(invoice_number, ''), total, status, purchase_date, COALESCE(notes, ''), created_at
FROM purchases WHERE id = $1 AND deleted_at IS NULL`, id).Scan(
		&p.ID, &p.SupplierID, &p.UserID, &p.InvoiceNumber, &p.Total, &p.Status, &p.PurchaseDate, &p.Notes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("purchases: purchase %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("purchases: get purchase: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT id, purchase_id, product_id, quantity, unit_cost, subtotal FROM purchase_details WHERE purchase_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("purchases: list details: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d PurchaseDetail
		if err := rows.Scan(&d.ID, &d.PurchaseID, &d.ProductID, &d.Quantity, &d.UnitCost, &d.Subtotal); err != nil {
			return nil, err
		}
		p.Details = append(p.Details, d)
	}
	return &p, rows.Err()
}

// ListPurchases returns purchase headers newest first.
func (r *Repository) ListPurchases(ctx context.Context, page, perPage int) ([]Purchase, int, error) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("purchases: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, user_id, COALESCE(invoice_number, ''), total, status, purchase_date, COALESCE(notes, ''), created_at
FROM purchases WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("purchases: list: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.UserID, &p.InvoiceNumber, &p.Total, &p.Status, &p.PurchaseDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, p)
	}
	return purchases, total, rows.Err()
}

// SoftDeletePurchase marks a purchase deleted. Received stock is not
// reversed.
func (r *Repository) SoftDeletePurchase(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("purchases: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchases: purchase %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
