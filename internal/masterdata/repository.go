package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for customers,
// suppliers and users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, COALESCE(document, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomer returns one customer by id.
func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: customer %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns active customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// CreateCustomer inserts a customer.
func (r *Repository) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `INSERT INTO customers (name, document, email, phone, address)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, '')) RETURNING `+customerColumns,
		input.Name, input.Document, input.Email, input.Phone, input.Address))
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("masterdata: customer document already registered: %w", shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: create customer: %w", err)
	}
	return c, nil
}

// UpdateCustomer rewrites the mutable customer fields.
func (r *Repository) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `UPDATE customers
SET name = $2, document = NULLIF($3, ''), email = NULLIF($4, ''), phone = NULLIF($5, ''), address = NULLIF($6, ''), updated_at = NOW()
WHERE id = $1 AND is_active RETURNING `+customerColumns,
		id, input.Name, input.Document, input.Email, input.Phone, input.Address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: customer %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: update customer: %w", err)
	}
	return c, nil
}

// DeactivateCustomer soft-deactivates a customer.
func (r *Repository) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("masterdata: deactivate customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: customer %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

const supplierColumns = `id, name, COALESCE(document, ''), COALESCE(contact_name, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), is_active, created_at, updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Document, &s.ContactName, &s.Email, &s.Phone, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSupplier returns one supplier by id.
func (r *Repository) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: supplier %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get supplier: %w", err)
	}
	return s, nil
}

// ListSuppliers returns active suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *s)
	}
	return suppliers, rows.Err()
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, document, contact_name, email, phone, address)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, '')) RETURNING `+supplierColumns,
		input.Name, input.Document, input.ContactName, input.Email, input.Phone, input.Address))
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("masterdata: supplier document already registered: %w", shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: create supplier: %w", err)
	}
	return s, nil
}

// UpdateSupplier rewrites the mutable supplier fields.
func (r *Repository) UpdateSupplier(ctx context.Context, id uuid.UUID, input SupplierInput) (*Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `UPDATE suppliers
SET name = $2, document = NULLIF($3, ''), contact_name = NULLIF($4, ''), email = NULLIF($5, ''), phone = NULLIF($6, ''), address = NULLIF($7, ''), updated_at = NOW()
WHERE id = $1 AND is_active RETURNING `+supplierColumns,
		id, input.Name, input.Document, input.ContactName, input.Email, input.Phone, input.Address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: supplier %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: update supplier: %w", err)
	}
	return s, nil
}

// DeactivateSupplier soft-deactivates a supplier.
func (r *Repository) DeactivateSupplier(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("masterdata: deactivate supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: supplier %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

const userColumns = `id, name, email, role, password_hash, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser returns one user by id.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: user %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get user: %w", err)
	}
	return u, nil
}

// ListUsers returns active users ordered by name.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user with an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, input UserInput, passwordHash string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `INSERT INTO users (name, email, role, password_hash)
VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		input.Name, input.Email, input.Role, passwordHash))
	if shared.IsUniqueViolation(err) {
		return nil, fmt.Errorf("masterdata: email already registered: %w", shared.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: create user: %w", err)
	}
	return u, nil
}

// DeactivateUser soft-deactivates a user.
func (r *Repository) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("masterdata: deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: user %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
