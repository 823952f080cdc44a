package cashregister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

const registerColumns = `id, user_id, opening_amount, closing_amount, expected_amount, difference, status, opened_at, closed_at, COALESCE(notes, ''), created_at`

// Repository provides PostgreSQL backed persistence for cash registers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a close transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*CashRegister, error)
	CashPaymentsTotal(ctx context.Context, registerID uuid.UUID) (decimal.Decimal, error)
	MarkClosed(ctx context.Context, id uuid.UUID, closingAmount, expectedAmount, difference decimal.Decimal, closedAt time.Time) error
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegister(row rowScanner) (*CashRegister, error) {
	var reg CashRegister
	err := row.Scan(&reg.ID, &reg.UserID, &reg.OpeningAmount, &reg.ClosingAmount, &reg.ExpectedAmount,
		&reg.Difference, &reg.Status, &reg.OpenedAt, &reg.ClosedAt, &reg.Notes, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Open inserts a new OPEN register row. A partial unique index on
// (user_id) WHERE status = 'open' enforces the one-open-session rule, so
// two concurrent opens for the same user cannot both succeed.
func (r *Repository) Open(ctx context.Context, userID uuid.UUID, openingAmount decimal.Decimal, notes string) (*CashRegister, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO cash_registers (user_id, opening_amount, status, opened_at, notes)
VALUES ($1, $2, 'open', NOW(), NULLIF($3, '')) RETURNING `+registerColumns,
		userID, openingAmount, notes)
	reg, err := scanRegister(row)
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("cashregister: user %s already has an open register: %w", userID, shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("cashregister: open: %w", err)
	}
	return reg, nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*CashRegister, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+registerColumns+` FROM cash_registers WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
	reg, err := scanRegister(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cashregister: register %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cashregister: get for update: %w", err)
	}
	return reg, nil
}

func (t *txRepo) CashPaymentsTotal(ctx context.Context, registerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(sp.amount), 0)
FROM sale_payments sp
JOIN sales s ON s.id = sp.sale_id
WHERE s.cash_register_id = $1 AND sp.payment_method = 'cash' AND s.deleted_at IS NULL AND s.status <> 'cancelled'`, registerID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cashregister: cash payments total: %w", err)
	}
	return total, nil
}

func (t *txRepo) MarkClosed(ctx context.Context, id uuid.UUID, closingAmount, expectedAmount, difference decimal.Decimal, closedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE cash_registers
SET closing_amount = $2, expected_amount = $3, difference = $4, closed_at = $5, status = 'closed'
WHERE id = $1 AND status = 'open'`, id, closingAmount, expectedAmount, difference, closedAt)
	if err != nil {
		return fmt.Errorf("cashregister: mark closed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cashregister: register %s is not open: %w", id, shared.ErrInvalidState)
	}
	return nil
}

// Get returns a register by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*CashRegister, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+registerColumns+` FROM cash_registers WHERE id = $1 AND deleted_at IS NULL`, id)
	reg, err := scanRegister(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cashregister: register %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cashregister: get: %w", err)
	}
	return reg, nil
}

// GetOpenForUser returns the user's open register, if any.
func (r *Repository) GetOpenForUser(ctx context.Context, userID uuid.UUID) (*CashRegister, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+registerColumns+` FROM cash_registers WHERE user_id = $1 AND status = 'open' AND deleted_at IS NULL`, userID)
	reg, err := scanRegister(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cashregister: no open register for user %s: %w", userID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cashregister: get open for user: %w", err)
	}
	return reg, nil
}

// List returns registers newest first.
func (r *Repository) List(ctx context.Context, page, perPage int) ([]CashRegister, int, error) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cash_registers WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("cashregister: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+registerColumns+` FROM cash_registers WHERE deleted_at IS NULL
ORDER BY opened_at DESC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("cashregister: list: %w", err)
	}
	defer rows.Close()

	var registers []CashRegister
	for rows.Next() {
		reg, err := scanRegister(rows)
		if err != nil {
			return nil, 0, err
		}
		registers = append(registers, *reg)
	}
	return registers, total, rows.Err()
}

// SoftDelete marks a closed register deleted. Open registers cannot be
// removed.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cash_registers SET deleted_at = NOW()
WHERE id = $1 AND deleted_at IS NULL AND status = 'closed'`, id)
	if err != nil {
		return fmt.Errorf("cashregister: soft delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status RegisterStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM cash_registers WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("cashregister: register %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("cashregister: soft delete lookup: %w", err)
	}
	return fmt.Errorf("cashregister: register %s is open and cannot be removed: %w", id, shared.ErrInvalidState)
}
