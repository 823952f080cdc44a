package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

type memoryCatalogRepo struct {
	products map[uuid.UUID]Product
	services map[uuid.UUID]Service
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		products: make(map[uuid.UUID]Product),
		services: make(map[uuid.UUID]Service),
	}
}

func (r *memoryCatalogRepo) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return Product{}, fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (r *memoryCatalogRepo) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) ListLowStockProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.IsActive && p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	p := Product{
		ID:       uuid.New(),
		Name:     input.Name,
		Price:    input.Price,
		Cost:     input.Cost,
		Stock:    input.Stock,
		MinStock: input.MinStock,
		Barcode:  input.Barcode,
		Type:     input.Type,
		IsActive: true,
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryCatalogRepo) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (Product, error) {
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return Product{}, fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	p.Name = input.Name
	p.Price = input.Price
	p.Cost = input.Cost
	p.MinStock = input.MinStock
	p.Stock = input.Stock
	p.Type = input.Type
	r.products[id] = p
	return p, nil
}

func (r *memoryCatalogRepo) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	p.IsActive = false
	r.products[id] = p
	return nil
}

func (r *memoryCatalogRepo) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	s, ok := r.services[id]
	if !ok || !s.IsActive {
		return Service{}, fmt.Errorf("service %s: %w", id, shared.ErrNotFound)
	}
	return s, nil
}

func (r *memoryCatalogRepo) ListServices(ctx context.Context) ([]Service, error) {
	var out []Service
	for _, s := range r.services {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) CreateService(ctx context.Context, input ServiceInput) (Service, error) {
	s := Service{ID: uuid.New(), Name: input.Name, Price: input.Price, IsActive: true}
	r.services[s.ID] = s
	return s, nil
}

func (r *memoryCatalogRepo) DeactivateService(ctx context.Context, id uuid.UUID) error {
	s, ok := r.services[id]
	if !ok || !s.IsActive {
		return fmt.Errorf("service %s: %w", id, shared.ErrNotFound)
	}
	s.IsActive = false
	r.services[id] = s
	return nil
}

func TestUpdateProductKeepsStockAndType(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	created, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "Notebook",
		Price:    decimal.NewFromInt(8500),
		Stock:    10,
		MinStock: 5,
		Type:     ProductTypePhysical,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), created.ID, ProductInput{
		Name:     "Notebook 100p",
		Price:    decimal.NewFromInt(9000),
		Stock:    999,
		Type:     ProductTypeService,
	})
	require.NoError(t, err)
	require.Equal(t, 10, updated.Stock, "stock is only mutated by sales and purchases")
	require.Equal(t, ProductTypePhysical, updated.Type)
	require.Equal(t, "Notebook 100p", updated.Name)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(context.Background(), ProductInput{Name: "X", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(context.Background(), ProductInput{Name: "X", Stock: -1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListLowStockProducts(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	low, err := svc.CreateProduct(context.Background(), ProductInput{Name: "Low", Stock: 3, MinStock: 5, Type: ProductTypePhysical})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), ProductInput{Name: "Fine", Stock: 50, MinStock: 5, Type: ProductTypePhysical})
	require.NoError(t, err)

	flagged, err := svc.ListLowStockProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, low.ID, flagged[0].ID)
}

func TestLowStockIgnoresServiceType(t *testing.T) {
	p := Product{Type: ProductTypeService, Stock: 0, MinStock: 5}
	require.False(t, p.LowStock())

	p.Type = ProductTypePhysical
	require.True(t, p.LowStock())
}
