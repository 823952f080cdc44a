package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts masterdata persistence for the service layer.
type RepositoryPort interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*Customer, error)
	DeactivateCustomer(ctx context.Context, id uuid.UUID) error

	GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, input SupplierInput) (*Supplier, error)
	DeactivateSupplier(ctx context.Context, id uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, input UserInput, passwordHash string) (*User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
}

// Service handles the customer, supplier and user collaborators the
// transactional modules reference.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the masterdata service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("masterdata: name is required: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if err := requireName(input.Name); err != nil {
		return nil, err
	}
	return s.repo.CreateCustomer(ctx, input)
}

func (s *Service) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*Customer, error) {
	if err := requireName(input.Name); err != nil {
		return nil, err
	}
	return s.repo.UpdateCustomer(ctx, id, input)
}

func (s *Service) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateCustomer(ctx, id)
}

func (s *Service) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	if err := requireName(input.Name); err != nil {
		return nil, err
	}
	return s.repo.CreateSupplier(ctx, input)
}

func (s *Service) UpdateSupplier(ctx context.Context, id uuid.UUID, input SupplierInput) (*Supplier, error) {
	if err := requireName(input.Name); err != nil {
		return nil, err
	}
	return s.repo.UpdateSupplier(ctx, id, input)
}

func (s *Service) DeactivateSupplier(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateSupplier(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateUser hashes the password with bcrypt before persisting.
func (s *Service) CreateUser(ctx context.Context, input UserInput) (*User, error) {
	if err := requireName(input.Name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, fmt.Errorf("masterdata: email is required: %w", shared.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("masterdata: password must be at least 8 characters: %w", shared.ErrValidation)
	}
	if input.Role == "" {
		input.Role = "cashier"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("masterdata: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, input, string(hash))
}

func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateUser(ctx, id)
}
