package cashregister

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

// memoryRegisterRepo backs the service with in-memory rows and enforces
// the same one-open-session-per-user rule the store's unique index does.
type memoryRegisterRepo struct {
	registers map[uuid.UUID]*CashRegister
	cashPaid  map[uuid.UUID]decimal.Decimal
}

func newMemoryRegisterRepo() *memoryRegisterRepo {
	return &memoryRegisterRepo{
		registers: make(map[uuid.UUID]*CashRegister),
		cashPaid:  make(map[uuid.UUID]decimal.Decimal),
	}
}

func (r *memoryRegisterRepo) Open(ctx context.Context, userID uuid.UUID, openingAmount decimal.Decimal, notes string) (*CashRegister, error) {
	for _, reg := range r.registers {
		if reg.UserID == userID && reg.Status == RegisterStatusOpen {
			return nil, fmt.Errorf("user %s already has an open register: %w", userID, shared.ErrConflict)
		}
	}
	reg := &CashRegister{
		ID:            uuid.New(),
		UserID:        userID,
		OpeningAmount: openingAmount,
		Status:        RegisterStatusOpen,
		OpenedAt:      time.Now().UTC(),
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	}
	r.registers[reg.ID] = reg
	return reg, nil
}

func (r *memoryRegisterRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryRegisterTx{repo: r})
}

type memoryRegisterTx struct {
	repo *memoryRegisterRepo
}

func (t *memoryRegisterTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*CashRegister, error) {
	reg, ok := t.repo.registers[id]
	if !ok {
		return nil, fmt.Errorf("register %s: %w", id, shared.ErrNotFound)
	}
	copied := *reg
	return &copied, nil
}

func (t *memoryRegisterTx) CashPaymentsTotal(ctx context.Context, registerID uuid.UUID) (decimal.Decimal, error) {
	return t.repo.cashPaid[registerID], nil
}

func (t *memoryRegisterTx) MarkClosed(ctx context.Context, id uuid.UUID, closingAmount, expectedAmount, difference decimal.Decimal, closedAt time.Time) error {
	reg, ok := t.repo.registers[id]
	if !ok || reg.Status != RegisterStatusOpen {
		return fmt.Errorf("register %s is not open: %w", id, shared.ErrInvalidState)
	}
	reg.ClosingAmount = &closingAmount
	reg.ExpectedAmount = &expectedAmount
	reg.Difference = &difference
	reg.ClosedAt = &closedAt
	reg.Status = RegisterStatusClosed
	return nil
}

func (r *memoryRegisterRepo) Get(ctx context.Context, id uuid.UUID) (*CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, fmt.Errorf("register %s: %w", id, shared.ErrNotFound)
	}
	copied := *reg
	return &copied, nil
}

func (r *memoryRegisterRepo) GetOpenForUser(ctx context.Context, userID uuid.UUID) (*CashRegister, error) {
	for _, reg := range r.registers {
		if reg.UserID == userID && reg.Status == RegisterStatusOpen {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no open register for user %s: %w", userID, shared.ErrNotFound)
}

func (r *memoryRegisterRepo) List(ctx context.Context, page, perPage int) ([]CashRegister, int, error) {
	var out []CashRegister
	for _, reg := range r.registers {
		out = append(out, *reg)
	}
	return out, len(out), nil
}

func (r *memoryRegisterRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	reg, ok := r.registers[id]
	if !ok {
		return fmt.Errorf("register %s: %w", id, shared.ErrNotFound)
	}
	if reg.Status != RegisterStatusClosed {
		return fmt.Errorf("register %s is open and cannot be removed: %w", id, shared.ErrInvalidState)
	}
	delete(r.registers, id)
	return nil
}

func TestOpenSecondRegisterSameUserRejected(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)
	userID := uuid.New()

	_, err := svc.Open(context.Background(), userID, decimal.NewFromInt(50000), "")
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), userID, decimal.NewFromInt(10000), "")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestOpenAfterCloseAllowed(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)
	userID := uuid.New()

	reg, err := svc.Open(context.Background(), userID, decimal.NewFromInt(1000), "")
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), reg.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), userID, decimal.NewFromInt(2000), "")
	require.NoError(t, err)
}

func TestCloseComputesExpectedAndDifference(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	reg, err := svc.Open(context.Background(), uuid.New(), decimal.NewFromInt(50000), "")
	require.NoError(t, err)
	repo.cashPaid[reg.ID] = decimal.NewFromInt(30000)

	closed, err := svc.Close(context.Background(), reg.ID, decimal.NewFromInt(80000))
	require.NoError(t, err)
	require.Equal(t, RegisterStatusClosed, closed.Status)
	require.NotNil(t, closed.ExpectedAmount)
	require.True(t, closed.ExpectedAmount.Equal(decimal.NewFromInt(80000)), "expected %s", closed.ExpectedAmount)
	require.NotNil(t, closed.Difference)
	require.True(t, closed.Difference.IsZero(), "difference %s", closed.Difference)
	require.NotNil(t, closed.ClosedAt)
}

func TestCloseShortDrawerReportsNegativeDifference(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	reg, err := svc.Open(context.Background(), uuid.New(), decimal.NewFromInt(10000), "")
	require.NoError(t, err)
	repo.cashPaid[reg.ID] = decimal.NewFromInt(5000)

	closed, err := svc.Close(context.Background(), reg.ID, decimal.NewFromInt(14000))
	require.NoError(t, err)
	require.True(t, closed.Difference.Equal(decimal.NewFromInt(-1000)), "difference %s", closed.Difference)
}

func TestCloseAlreadyClosedRejected(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	reg, err := svc.Open(context.Background(), uuid.New(), decimal.NewFromInt(1000), "")
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), reg.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), reg.ID, decimal.NewFromInt(1000))
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCloseUnknownRegister(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Close(context.Background(), uuid.New(), decimal.NewFromInt(100))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveOpenRegisterForbidden(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	reg, err := svc.Open(context.Background(), uuid.New(), decimal.NewFromInt(1000), "")
	require.NoError(t, err)

	err = svc.Remove(context.Background(), reg.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Close(context.Background(), reg.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), reg.ID))
}

func TestOpenValidation(t *testing.T) {
	repo := newMemoryRegisterRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Open(context.Background(), uuid.Nil, decimal.NewFromInt(100), "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Open(context.Background(), uuid.New(), decimal.NewFromInt(-1), "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Close(context.Background(), uuid.New(), decimal.NewFromInt(-1))
	require.ErrorIs(t, err, shared.ErrValidation)
}
