package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a sale transaction.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error)
	InsertItem(ctx context.Context, item SaleItem) error
	InsertPayment(ctx context.Context, payment SalePayment) error
	ProductType(ctx context.Context, productID uuid.UUID) (catalog.ProductType, error)
	ServiceExists(ctx context.Context, serviceID uuid.UUID) error
	RegisterIsOpen(ctx context.Context, registerID uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a transaction; every write through the
// handle commits or rolls back as one unit.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (total, discount, tax_amount, status, notes, invoice_number, user_id, customer_id, cash_register_id)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9) RETURNING id`,
		sale.Total, sale.Discount, sale.TaxAmount, sale.Status, sale.Notes, sale.InvoiceNumber, sale.UserID, sale.CustomerID, sale.CashRegisterID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("sales: insert sale: %w", err)
	}
	return id, nil
}

func (t *txRepo) InsertItem(ctx context.Context, item SaleItem) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sale_items (sale_id, product_id, service_id, quantity, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.SaleID, item.ProductID, item.ServiceID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return fmt.Errorf("sales: insert item: %w", err)
	}
	return nil
}

func (t *txRepo) InsertPayment(ctx context.Context, payment SalePayment) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sale_payments (sale_id, payment_method, amount, voucher_number, reference_number) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
		payment.SaleID, payment.Method, payment.Amount, payment.VoucherNumber, payment.ReferenceNumber)
	if err != nil {
		return fmt.Errorf("sales: insert payment: %w", err)
	}
	return nil
}

func (t *txRepo) ProductType(ctx context.Context, productID uuid.UUID) (catalog.ProductType, error) {
	var pt catalog.ProductType
	err := t.tx.QueryRow(ctx, `SELECT type FROM products WHERE id = $1 AND is_active`, productID).Scan(&pt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("sales: product %s: %w", productID, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sales: product type: %w", err)
	}
	return pt, nil
}

func (t *txRepo) ServiceExists(ctx context.Context, serviceID uuid.UUID) error {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM services WHERE id = $1 AND is_active)`, serviceID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sales: service lookup: %w", err)
	}
	if !exists {
		return fmt.Errorf("sales: service %s: %w", serviceID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) RegisterIsOpen(ctx context.Context, registerID uuid.UUID) error {
	var status string
	err := t.tx.QueryRow(ctx, `SELECT status FROM cash_registers WHERE id = $1 AND deleted_at IS NULL`, registerID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("sales: cash register %s: %w", registerID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sales: cash register lookup: %w", err)
	}
	if status != "open" {
		return fmt.Errorf("sales: cash register %s is closed: %w", registerID, shared.ErrInvalidState)
	}
	return nil
}

func (t *txRepo) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return catalog.DecrementStock(ctx, t.tx, productID, qty)
}

// GetSale returns the hydrated sale with items and payments.
func (r *Repository) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	var s Sale
	var notes, invoice *string
	err := r.pool.QueryRow(ctx, `SELECT id, total, discount, tax_amount, status, notes, invoice_number, user_id, customer_id, cash_register_id, created_at, updated_at
FROM sales WHERE id = $1 AND deleted_at IS NULL`, id).Scan(
		&s.ID, &s.Total, &s.Discount, &s.TaxAmount, &s.Status, &notes, &invoice, &s.UserID, &s.CustomerID, &s.CashRegisterID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sales: sale %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sales: get sale: %w", err)
	}
	if notes != nil {
		s.Notes = *notes
	}
	if invoice != nil {
		s.InvoiceNumber = *invoice
	}

	items, err := r.saleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Items = items

	payments, err := r.salePayments(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Payments = payments

	return &s, nil
}

func (r *Repository) saleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, service_id, quantity, unit_price, subtotal FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: list items: %w", err)
	}
	defer rows.Close()
	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ServiceID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) salePayments(ctx context.Context, saleID uuid.UUID) ([]SalePayment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, payment_method, amount, COALESCE(voucher_number, ''), COALESCE(reference_number, ''), created_at FROM sale_payments WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: list payments: %w", err)
	}
	defer rows.Close()
	var payments []SalePayment
	for rows.Next() {
		var p SalePayment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Method, &p.Amount, &p.VoucherNumber, &p.ReferenceNumber, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListSales returns sale headers for the filter plus the total row count.
// The day window, when present, is in UTC instants precomputed by the caller.
func (r *Repository) ListSales(ctx context.Context, from, to time.Time, page, perPage int) ([]Sale, int, error) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}

	where := `deleted_at IS NULL`
	args := []any{}
	if !from.IsZero() {
		args = append(args, from, to)
		where += ` AND created_at >= $1 AND created_at < $2`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sales: count: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, total, discount, tax_amount, status, COALESCE(notes, ''), COALESCE(invoice_number, ''), user_id, customer_id, cash_register_id, created_at, updated_at
FROM sales WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.Total, &s.Discount, &s.TaxAmount, &s.Status, &s.Notes, &s.InvoiceNumber, &s.UserID, &s.CustomerID, &s.CashRegisterID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

// SoftDeleteSale marks a sale deleted. Items and payments stay attached for
// the ledger; reads exclude the sale explicitly.
func (r *Repository) SoftDeleteSale(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sales SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("sales: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: sale %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
