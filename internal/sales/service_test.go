package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/shared"
	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

type fakeProduct struct {
	typ   catalog.ProductType
	stock int
}

type memoryState struct {
	products  map[uuid.UUID]fakeProduct
	services  map[uuid.UUID]bool
	registers map[uuid.UUID]string
	sales     map[uuid.UUID]Sale
	items     []SaleItem
	payments  []SalePayment
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		products:  make(map[uuid.UUID]fakeProduct, len(s.products)),
		services:  make(map[uuid.UUID]bool, len(s.services)),
		registers: make(map[uuid.UUID]string, len(s.registers)),
		sales:     make(map[uuid.UUID]Sale, len(s.sales)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.registers {
		c.registers[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	c.items = append(c.items, s.items...)
	c.payments = append(c.payments, s.payments...)
	return c
}

// memorySalesRepo mimics the transactional contract: writes inside WithTx
// only become visible when the callback returns nil.
type memorySalesRepo struct {
	state *memoryState
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{state: &memoryState{
		products:  make(map[uuid.UUID]fakeProduct),
		services:  make(map[uuid.UUID]bool),
		registers: make(map[uuid.UUID]string),
		sales:     make(map[uuid.UUID]Sale),
	}}
}

type memoryTx struct {
	state *memoryState
}

func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := r.state.clone()
	if err := fn(ctx, &memoryTx{state: staged}); err != nil {
		return err
	}
	r.state = staged
	return nil
}

func (t *memoryTx) InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error) {
	sale.ID = uuid.New()
	sale.CreatedAt = time.Now().UTC()
	sale.UpdatedAt = sale.CreatedAt
	t.state.sales[sale.ID] = sale
	return sale.ID, nil
}

func (t *memoryTx) InsertItem(ctx context.Context, item SaleItem) error {
	item.ID = uuid.New()
	t.state.items = append(t.state.items, item)
	return nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, payment SalePayment) error {
	payment.ID = uuid.New()
	t.state.payments = append(t.state.payments, payment)
	return nil
}

func (t *memoryTx) ProductType(ctx context.Context, productID uuid.UUID) (catalog.ProductType, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return "", fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	return p.typ, nil
}

func (t *memoryTx) ServiceExists(ctx context.Context, serviceID uuid.UUID) error {
	if !t.state.services[serviceID] {
		return fmt.Errorf("service %s: %w", serviceID, shared.ErrNotFound)
	}
	return nil
}

func (t *memoryTx) RegisterIsOpen(ctx context.Context, registerID uuid.UUID) error {
	status, ok := t.state.registers[registerID]
	if !ok {
		return fmt.Errorf("register %s: %w", registerID, shared.ErrNotFound)
	}
	if status != "open" {
		return fmt.Errorf("register %s closed: %w", registerID, shared.ErrInvalidState)
	}
	return nil
}

func (t *memoryTx) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	p, ok := t.state.products[productID]
	if !ok || p.typ != catalog.ProductTypePhysical {
		return fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	if p.stock < qty {
		return fmt.Errorf("product %s has %d on hand: %w", productID, p.stock, shared.ErrInsufficientStock)
	}
	p.stock -= qty
	t.state.products[productID] = p
	return nil
}

func (r *memorySalesRepo) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	sale, ok := r.state.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %s: %w", id, shared.ErrNotFound)
	}
	for _, item := range r.state.items {
		if item.SaleID == id {
			sale.Items = append(sale.Items, item)
		}
	}
	for _, payment := range r.state.payments {
		if payment.SaleID == id {
			sale.Payments = append(sale.Payments, payment)
		}
	}
	return &sale, nil
}

func (r *memorySalesRepo) ListSales(ctx context.Context, from, to time.Time, page, perPage int) ([]Sale, int, error) {
	var sales []Sale
	for _, s := range r.state.sales {
		sales = append(sales, s)
	}
	return sales, len(sales), nil
}

func (r *memorySalesRepo) SoftDeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.state.sales[id]; !ok {
		return fmt.Errorf("sale %s: %w", id, shared.ErrNotFound)
	}
	delete(r.state.sales, id)
	return nil
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func baseInput(userID uuid.UUID, items []LineInput, payments []PaymentInput) CreateSaleInput {
	return CreateSaleInput{UserID: userID, Items: items, Payments: payments}
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	repo := newMemorySalesRepo()
	productID := uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 10}
	svc := NewService(repo, nil, nil, nil, nil)

	sale, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 3, UnitPrice: dec(2500)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(7500)}},
	))
	require.NoError(t, err)
	require.True(t, sale.Total.Equal(dec(7500)), "total = %s", sale.Total)
	require.Len(t, sale.Items, 1)
	require.True(t, sale.Items[0].Subtotal.Equal(dec(7500)))
	require.Equal(t, 7, repo.state.products[productID].stock)
}

func TestCreateSaleInsufficientPayment(t *testing.T) {
	repo := newMemorySalesRepo()
	productID := uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 10}
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 2, UnitPrice: dec(5000)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(6000)}, {Method: PaymentCard, Amount: dec(3000)}},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientPayment)

	require.Empty(t, repo.state.sales)
	require.Empty(t, repo.state.items)
	require.Empty(t, repo.state.payments)
	require.Equal(t, 10, repo.state.products[productID].stock)
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	repo := newMemorySalesRepo()
	okID, shortID := uuid.New(), uuid.New()
	repo.state.products[okID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 50}
	repo.state.products[shortID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 1}
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{
			{Kind: ItemKindProduct, ItemID: okID, Quantity: 5, UnitPrice: dec(1000)},
			{Kind: ItemKindProduct, ItemID: shortID, Quantity: 2, UnitPrice: dec(1000)},
		},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(7000)}},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// The first line's decrement must not survive the rollback.
	require.Equal(t, 50, repo.state.products[okID].stock)
	require.Equal(t, 1, repo.state.products[shortID].stock)
	require.Empty(t, repo.state.sales)
	require.Empty(t, repo.state.items)
}

func TestCreateSaleServiceLineSkipsStock(t *testing.T) {
	repo := newMemorySalesRepo()
	serviceID := uuid.New()
	repo.state.services[serviceID] = true
	svc := NewService(repo, nil, nil, nil, nil)

	sale, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindService, ItemID: serviceID, Quantity: 4, UnitPrice: dec(200)}},
		[]PaymentInput{{Method: PaymentNequi, Amount: dec(800)}},
	))
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	require.NotNil(t, sale.Items[0].ServiceID)
	require.Nil(t, sale.Items[0].ProductID)
}

func TestCreateSaleServiceTypeProductSkipsStock(t *testing.T) {
	repo := newMemorySalesRepo()
	productID := uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypeService, stock: 0}
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 3, UnitPrice: dec(100)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(300)}},
	))
	require.NoError(t, err)
	require.Equal(t, 0, repo.state.products[productID].stock)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: uuid.New(), Quantity: 1, UnitPrice: dec(100)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(100)}},
	))
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.state.sales)
}

func TestCreateSaleClosedRegisterRejected(t *testing.T) {
	repo := newMemorySalesRepo()
	productID, registerID := uuid.New(), uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 10}
	repo.state.registers[registerID] = "closed"
	svc := NewService(repo, nil, nil, nil, nil)

	input := baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 1, UnitPrice: dec(100)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(100)}},
	)
	input.CashRegisterID = &registerID

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, 10, repo.state.products[productID].stock)
}

func TestCreateSaleStockExhaustion(t *testing.T) {
	repo := newMemorySalesRepo()
	productID := uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 5}
	svc := NewService(repo, nil, nil, nil, nil)

	input := baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 5, UnitPrice: dec(1000)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(5000)}},
	)

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, 0, repo.state.products[productID].stock)
}

func TestCreateSaleMultiplePaymentsRecorded(t *testing.T) {
	repo := newMemorySalesRepo()
	productID := uuid.New()
	repo.state.products[productID] = fakeProduct{typ: catalog.ProductTypePhysical, stock: 10}
	svc := NewService(repo, nil, nil, nil, nil)

	sale, err := svc.Create(context.Background(), baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: productID, Quantity: 2, UnitPrice: dec(5000)}},
		[]PaymentInput{
			{Method: PaymentCash, Amount: dec(6000)},
			{Method: PaymentCard, Amount: dec(4000), VoucherNumber: "V-778"},
		},
	))
	require.NoError(t, err)
	require.Len(t, sale.Payments, 2)
	require.Equal(t, "V-778", sale.Payments[1].VoucherNumber)

	// Overpayment is allowed; the amounts are recorded verbatim.
	paid := decimal.Zero
	for _, p := range sale.Payments {
		paid = paid.Add(p.Amount)
	}
	require.True(t, paid.GreaterThanOrEqual(sale.Total))
}

func TestCreateSaleValidation(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, baseInput(uuid.New(), nil, []PaymentInput{{Method: PaymentCash, Amount: dec(1)}}))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: uuid.New(), Quantity: 0, UnitPrice: dec(1)}},
		[]PaymentInput{{Method: PaymentCash, Amount: dec(1)}}))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, baseInput(uuid.New(),
		[]LineInput{{Kind: ItemKindProduct, ItemID: uuid.New(), Quantity: 1, UnitPrice: dec(1)}},
		[]PaymentInput{{Method: "cheque", Amount: dec(1)}}))
	require.ErrorIs(t, err, shared.ErrValidation)
}
