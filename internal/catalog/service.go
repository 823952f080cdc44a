package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts catalog persistence for the service layer.
type RepositoryPort interface {
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListLowStockProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	GetService(ctx context.Context, id uuid.UUID) (Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	CreateService(ctx context.Context, input ServiceInput) (Service, error)
	DeactivateService(ctx context.Context, id uuid.UUID) error
}

// CatalogService coordinates product and service master data.
type CatalogService struct {
	repo RepositoryPort
}

// NewService builds CatalogService.
func NewService(repo RepositoryPort) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) validateProduct(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("product name is required: %w", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("product price must be >= 0: %w", shared.ErrValidation)
	}
	if input.Stock < 0 || input.MinStock < 0 {
		return fmt.Errorf("stock levels must be >= 0: %w", shared.ErrValidation)
	}
	switch input.Type {
	case ProductTypePhysical, ProductTypeService:
	default:
		return fmt.Errorf("unknown product type %q: %w", input.Type, shared.ErrValidation)
	}
	return nil
}

// CreateProduct validates and stores a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if input.Type == "" {
		input.Type = ProductTypePhysical
	}
	if err := s.validateProduct(input); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, input)
}

// UpdateProduct validates and updates an existing product. Stock and type are
// immutable through this path.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (Product, error) {
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	input.Type = current.Type
	input.Stock = current.Stock
	if err := s.validateProduct(input); err != nil {
		return Product{}, err
	}
	return s.repo.UpdateProduct(ctx, id, input)
}

// GetProduct fetches a single product.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists active products.
func (s *CatalogService) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListLowStockProducts lists physical products at or below their threshold.
func (s *CatalogService) ListLowStockProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStockProducts(ctx)
}

// DeactivateProduct soft-deletes a product.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateProduct(ctx, id)
}

// CreateService validates and stores a new service.
func (s *CatalogService) CreateService(ctx context.Context, input ServiceInput) (Service, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Service{}, fmt.Errorf("service name is required: %w", shared.ErrValidation)
	}
	if input.Price.IsNegative() {
		return Service{}, fmt.Errorf("service price must be >= 0: %w", shared.ErrValidation)
	}
	return s.repo.CreateService(ctx, input)
}

// GetService fetches a single service.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	return s.repo.GetService(ctx, id)
}

// ListServices lists active services.
func (s *CatalogService) ListServices(ctx context.Context) ([]Service, error) {
	return s.repo.ListServices(ctx)
}

// DeactivateService soft-deletes a service.
func (s *CatalogService) DeactivateService(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateService(ctx, id)
}
