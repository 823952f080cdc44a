package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, COALESCE(description, ''), price, COALESCE(cost, 0), stock, min_stock, COALESCE(barcode, ''), COALESCE(sku, ''), type, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Cost, &p.Stock, &p.MinStock, &p.Barcode, &p.SKU, &p.Type, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProduct returns a product by id including inactive ones.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product: %w", err)
	}
	return p, nil
}

// ListProducts returns active products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListLowStockProducts returns active physical products at or below their
// minimum stock threshold.
func (r *Repository) ListLowStockProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active AND type = 'physical' AND stock <= min_stock ORDER BY stock ASC, name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list low stock: %w", err)
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a product and returns the stored row.
func (r *Repository) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, description, price, cost, stock, min_stock, barcode, sku, type)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
RETURNING `+productColumns,
		input.Name, input.Description, input.Price, input.Cost, input.Stock, input.MinStock, input.Barcode, input.SKU, input.Type)
	p, err := scanProduct(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Product{}, fmt.Errorf("catalog: barcode %q already registered: %w", input.Barcode, shared.ErrConflict)
		}
		return Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return p, nil
}

// UpdateProduct updates the mutable fields except stock, which only the
// transactional increment/decrement paths may touch.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products SET name = $2, description = NULLIF($3, ''), price = $4, cost = $5, min_stock = $6, barcode = NULLIF($7, ''), sku = NULLIF($8, ''), updated_at = NOW()
WHERE id = $1 RETURNING `+productColumns,
		id, input.Name, input.Description, input.Price, input.Cost, input.MinStock, input.Barcode, input.SKU)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: update product: %w", err)
	}
	return p, nil
}

// DeactivateProduct soft-deletes a product. The row stays for reporting joins.
func (r *Repository) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

const serviceColumns = `id, name, COALESCE(description, ''), price, is_active, created_at, updated_at`

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetService returns a service by id.
func (r *Repository) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	s, err := scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, fmt.Errorf("catalog: service %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Service{}, fmt.Errorf("catalog: get service: %w", err)
	}
	return s, nil
}

// ListServices returns active services ordered by name.
func (r *Repository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()
	var services []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// CreateService inserts a service.
func (r *Repository) CreateService(ctx context.Context, input ServiceInput) (Service, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO services (name, description, price) VALUES ($1, NULLIF($2, ''), $3) RETURNING `+serviceColumns,
		input.Name, input.Description, input.Price)
	s, err := scanService(row)
	if err != nil {
		return Service{}, fmt.Errorf("catalog: create service: %w", err)
	}
	return s, nil
}

// DeactivateService soft-deletes a service.
func (r *Repository) DeactivateService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE services SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: service %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
