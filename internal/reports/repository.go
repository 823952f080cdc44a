package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// saleFilter excludes soft-deleted and cancelled sales from every
// aggregation, so reports always mirror what the ledger holds.
const saleFilter = `s.deleted_at IS NULL AND s.status <> 'cancelled'`

// Repository runs read-only aggregation queries over the ledger rows the
// transactional modules write. It never mutates anything.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func rangeClause(r DateRange, argOffset int) (string, []any) {
	clause := ""
	var args []any
	if !r.From.IsZero() {
		args = append(args, r.From)
		clause += fmt.Sprintf(" AND s.created_at >= $%d", argOffset+len(args))
	}
	if !r.To.IsZero() {
		args = append(args, r.To)
		clause += fmt.Sprintf(" AND s.created_at < $%d", argOffset+len(args))
	}
	return clause, args
}

// SalesTotals returns the sale count and revenue sum within the range.
func (r *Repository) SalesTotals(ctx context.Context, dr DateRange) (int, decimal.Decimal, error) {
	clause, args := rangeClause(dr, 0)
	var count int
	var revenue decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(s.total), 0) FROM sales s WHERE `+saleFilter+clause, args...).Scan(&count, &revenue)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("reports: sales totals: %w", err)
	}
	return count, revenue, nil
}

// PurchasesTotal sums purchase spend within the range.
func (r *Repository) PurchasesTotal(ctx context.Context, dr DateRange) (decimal.Decimal, error) {
	clause, args := rangeClause(dr, 0)
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(s.total), 0) FROM purchases s WHERE s.deleted_at IS NULL AND s.status <> 'cancelled'`+clause, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reports: purchases total: %w", err)
	}
	return total, nil
}

// ProductCounts returns the active product count and how many physical
// products sit at or below their minimum stock.
func (r *Repository) ProductCounts(ctx context.Context) (int, int, error) {
	var total, low int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE type = 'physical' AND stock <= min_stock)
FROM products WHERE is_active`).Scan(&total, &low)
	if err != nil {
		return 0, 0, fmt.Errorf("reports: product counts: %w", err)
	}
	return total, low, nil
}

// SalesChart buckets sales by the given date_trunc unit (day, week, month).
func (r *Repository) SalesChart(ctx context.Context, dr DateRange, unit string) ([]ChartPoint, error) {
	switch unit {
	case "day", "week", "month":
	default:
		return nil, fmt.Errorf("reports: unsupported chart unit %q: %w", unit, shared.ErrValidation)
	}
	clause, args := rangeClause(dr, 1)
	args = append([]any{unit}, args...)

	rows, err := r.pool.Query(ctx, `SELECT date_trunc($1, s.created_at) AS bucket, COUNT(*), COALESCE(SUM(s.total), 0)
FROM sales s WHERE `+saleFilter+clause+` GROUP BY bucket ORDER BY bucket`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: sales chart: %w", err)
	}
	defer rows.Close()

	var points []ChartPoint
	for rows.Next() {
		var p ChartPoint
		if err := rows.Scan(&p.Bucket, &p.Count, &p.Revenue); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TopSellingItems ranks product and service lines by quantity sold.
func (r *Repository) TopSellingItems(ctx context.Context, dr DateRange, limit int) ([]TopItem, error) {
	if limit <= 0 {
		limit = 10
	}
	clause, args := rangeClause(dr, 1)
	args = append([]any{limit}, args...)

	rows, err := r.pool.Query(ctx, `SELECT item_id, kind, name, total_sold, revenue FROM (
  SELECT p.id AS item_id, 'product' AS kind, p.name, SUM(si.quantity) AS total_sold, SUM(si.subtotal) AS revenue
  FROM sale_items si
  JOIN sales s ON s.id = si.sale_id
  JOIN products p ON p.id = si.product_id
  WHERE si.product_id IS NOT NULL AND `+saleFilter+clause+`
  GROUP BY p.id, p.name
  UNION ALL
  SELECT sv.id AS item_id, 'service' AS kind, sv.name, SUM(si.quantity) AS total_sold, SUM(si.subtotal) AS revenue
  FROM sale_items si
  JOIN sales s ON s.id = si.sale_id
  JOIN services sv ON sv.id = si.service_id
  WHERE si.service_id IS NOT NULL AND `+saleFilter+clause+`
) ranked ORDER BY total_sold DESC, revenue DESC LIMIT $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: top selling items: %w", err)
	}
	defer rows.Close()

	var items []TopItem
	for rows.Next() {
		var it TopItem
		if err := rows.Scan(&it.ItemID, &it.Kind, &it.Name, &it.TotalSold, &it.Revenue); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SalesByKind splits line revenue between product and service lines.
func (r *Repository) SalesByKind(ctx context.Context, dr DateRange) ([]KindBreakdown, error) {
	clause, args := rangeClause(dr, 0)
	rows, err := r.pool.Query(ctx, `SELECT CASE WHEN si.product_id IS NOT NULL THEN 'product' ELSE 'service' END AS kind,
COUNT(*), COALESCE(SUM(si.subtotal), 0)
FROM sale_items si JOIN sales s ON s.id = si.sale_id
WHERE `+saleFilter+clause+` GROUP BY kind ORDER BY kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: sales by kind: %w", err)
	}
	defer rows.Close()

	var out []KindBreakdown
	for rows.Next() {
		var kb KindBreakdown
		if err := rows.Scan(&kb.Kind, &kb.Count, &kb.Revenue); err != nil {
			return nil, err
		}
		out = append(out, kb)
	}
	return out, rows.Err()
}

// PaymentTotals sums collected money per tender type.
func (r *Repository) PaymentTotals(ctx context.Context, dr DateRange) ([]PaymentMethodBreakdown, error) {
	clause, args := rangeClause(dr, 0)
	rows, err := r.pool.Query(ctx, `SELECT sp.payment_method, COUNT(*), COALESCE(SUM(sp.amount), 0)
FROM sale_payments sp JOIN sales s ON s.id = sp.sale_id
WHERE `+saleFilter+clause+` GROUP BY sp.payment_method ORDER BY SUM(sp.amount) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: payment totals: %w", err)
	}
	defer rows.Close()

	var out []PaymentMethodBreakdown
	for rows.Next() {
		var pb PaymentMethodBreakdown
		if err := rows.Scan(&pb.Method, &pb.Count, &pb.Amount); err != nil {
			return nil, err
		}
		out = append(out, pb)
	}
	return out, rows.Err()
}

// MixedPaymentSales lists sales settled with more than one tender type.
func (r *Repository) MixedPaymentSales(ctx context.Context, dr DateRange) ([]MixedPaymentSale, error) {
	clause, args := rangeClause(dr, 0)
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.total, array_agg(DISTINCT sp.payment_method ORDER BY sp.payment_method), s.created_at
FROM sales s JOIN sale_payments sp ON sp.sale_id = s.id
WHERE `+saleFilter+clause+` GROUP BY s.id HAVING COUNT(DISTINCT sp.payment_method) > 1
ORDER BY s.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: mixed payment sales: %w", err)
	}
	defer rows.Close()

	var out []MixedPaymentSale
	for rows.Next() {
		var m MixedPaymentSale
		if err := rows.Scan(&m.SaleID, &m.Total, &m.Methods, &m.PaymentDate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Vouchers lists payments carrying a voucher number.
func (r *Repository) Vouchers(ctx context.Context, dr DateRange) ([]VoucherEntry, error) {
	clause, args := rangeClause(dr, 0)
	rows, err := r.pool.Query(ctx, `SELECT sp.sale_id, sp.payment_method, sp.amount, sp.voucher_number, COALESCE(sp.reference_number, ''), sp.created_at
FROM sale_payments sp JOIN sales s ON s.id = sp.sale_id
WHERE sp.voucher_number IS NOT NULL AND `+saleFilter+clause+` ORDER BY sp.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: vouchers: %w", err)
	}
	defer rows.Close()

	var out []VoucherEntry
	for rows.Next() {
		var v VoucherEntry
		if err := rows.Scan(&v.SaleID, &v.Method, &v.Amount, &v.VoucherNumber, &v.ReferenceNumber, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RegisterWithPayments loads a register row and its per-method payment
// sums for reconciliation.
func (r *Repository) RegisterWithPayments(ctx context.Context, registerID uuid.UUID) (*RegisterReconciliation, error) {
	var rec RegisterReconciliation
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, status, opened_at, closed_at, opening_amount, closing_amount, expected_amount, difference
FROM cash_registers WHERE id = $1 AND deleted_at IS NULL`, registerID).Scan(
		&rec.RegisterID, &rec.UserID, &rec.Status, &rec.OpenedAt, &rec.ClosedAt,
		&rec.OpeningAmount, &rec.ClosingAmount, &rec.ExpectedAmount, &rec.Difference)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reports: register %s: %w", registerID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reports: register lookup: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT sp.payment_method, COUNT(*), COALESCE(SUM(sp.amount), 0)
FROM sale_payments sp JOIN sales s ON s.id = sp.sale_id
WHERE s.cash_register_id = $1 AND `+saleFilter+` GROUP BY sp.payment_method ORDER BY SUM(sp.amount) DESC`, registerID)
	if err != nil {
		return nil, fmt.Errorf("reports: register payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pb PaymentMethodBreakdown
		if err := rows.Scan(&pb.Method, &pb.Count, &pb.Amount); err != nil {
			return nil, err
		}
		rec.Breakdown = append(rec.Breakdown, pb)
	}
	return &rec, rows.Err()
}

// LowStockProducts lists physical products at or below their threshold.
func (r *Repository) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, stock, min_stock FROM products
WHERE is_active AND type = 'physical' AND stock <= min_stock ORDER BY stock ASC, name`)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock products: %w", err)
	}
	defer rows.Close()

	var out []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Stock, &p.MinStock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
