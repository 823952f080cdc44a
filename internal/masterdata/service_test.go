package masterdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

type memoryMasterdataRepo struct {
	customers map[uuid.UUID]Customer
	suppliers map[uuid.UUID]Supplier
	users     map[uuid.UUID]User
}

func newMemoryMasterdataRepo() *memoryMasterdataRepo {
	return &memoryMasterdataRepo{
		customers: make(map[uuid.UUID]Customer),
		suppliers: make(map[uuid.UUID]Supplier),
		users:     make(map[uuid.UUID]User),
	}
}

func (r *memoryMasterdataRepo) GetCustomer(_ context.Context, id uuid.UUID) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, shared.ErrNotFound)
	}
	return &c, nil
}

func (r *memoryMasterdataRepo) ListCustomers(_ context.Context) ([]Customer, error) {
	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryMasterdataRepo) CreateCustomer(_ context.Context, input CustomerInput) (*Customer, error) {
	c := Customer{ID: uuid.New(), Name: input.Name, Document: input.Document, IsActive: true, CreatedAt: time.Now().UTC()}
	r.customers[c.ID] = c
	return &c, nil
}

func (r *memoryMasterdataRepo) UpdateCustomer(_ context.Context, id uuid.UUID, input CustomerInput) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, shared.ErrNotFound)
	}
	c.Name = input.Name
	r.customers[id] = c
	return &c, nil
}

func (r *memoryMasterdataRepo) DeactivateCustomer(_ context.Context, id uuid.UUID) error {
	c, ok := r.customers[id]
	if !ok {
		return fmt.Errorf("customer %s: %w", id, shared.ErrNotFound)
	}
	c.IsActive = false
	r.customers[id] = c
	return nil
}

func (r *memoryMasterdataRepo) GetSupplier(_ context.Context, id uuid.UUID) (*Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("supplier %s: %w", id, shared.ErrNotFound)
	}
	return &s, nil
}

func (r *memoryMasterdataRepo) ListSuppliers(_ context.Context) ([]Supplier, error) {
	out := make([]Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryMasterdataRepo) CreateSupplier(_ context.Context, input SupplierInput) (*Supplier, error) {
	s := Supplier{ID: uuid.New(), Name: input.Name, IsActive: true, CreatedAt: time.Now().UTC()}
	r.suppliers[s.ID] = s
	return &s, nil
}

func (r *memoryMasterdataRepo) UpdateSupplier(_ context.Context, id uuid.UUID, input SupplierInput) (*Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("supplier %s: %w", id, shared.ErrNotFound)
	}
	s.Name = input.Name
	r.suppliers[id] = s
	return &s, nil
}

func (r *memoryMasterdataRepo) DeactivateSupplier(_ context.Context, id uuid.UUID) error {
	s, ok := r.suppliers[id]
	if !ok {
		return fmt.Errorf("supplier %s: %w", id, shared.ErrNotFound)
	}
	s.IsActive = false
	r.suppliers[id] = s
	return nil
}

func (r *memoryMasterdataRepo) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return &u, nil
}

func (r *memoryMasterdataRepo) ListUsers(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryMasterdataRepo) CreateUser(_ context.Context, input UserInput, passwordHash string) (*User, error) {
	for _, u := range r.users {
		if u.Email == input.Email {
			return nil, fmt.Errorf("user email %s: %w", input.Email, shared.ErrConflict)
		}
	}
	u := User{ID: uuid.New(), Name: input.Name, Email: input.Email, Role: input.Role, PasswordHash: passwordHash, IsActive: true, CreatedAt: time.Now().UTC()}
	r.users[u.ID] = u
	return &u, nil
}

func (r *memoryMasterdataRepo) DeactivateUser(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	u.IsActive = false
	r.users[id] = u
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc := NewService(newMemoryMasterdataRepo())

	user, err := svc.CreateUser(context.Background(), UserInput{
		Name:     "Laura Gómez",
		Email:    "laura@meridian.test",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))
	require.Equal(t, "cashier", user.Role)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemoryMasterdataRepo())

	cases := []struct {
		name  string
		input UserInput
	}{
		{"missing name", UserInput{Email: "a@b.test", Password: "longenough"}},
		{"missing email", UserInput{Name: "A", Password: "longenough"}},
		{"short password", UserInput{Name: "A", Email: "a@b.test", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tc.input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryMasterdataRepo())

	input := UserInput{Name: "A", Email: "dup@meridian.test", Password: "longenough"}
	_, err := svc.CreateUser(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCustomerNameRequired(t *testing.T) {
	svc := NewService(newMemoryMasterdataRepo())

	_, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: "Papelería Central", Document: "900123456"})
	require.NoError(t, err)

	_, err = svc.UpdateCustomer(context.Background(), created.ID, CustomerInput{Name: ""})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateSupplier(t *testing.T) {
	repo := newMemoryMasterdataRepo()
	svc := NewService(repo)

	created, err := svc.CreateSupplier(context.Background(), SupplierInput{Name: "Distribuidora Norte"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateSupplier(context.Background(), created.ID))

	got, err := svc.GetSupplier(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	err = svc.DeactivateSupplier(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
