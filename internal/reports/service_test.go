package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

type mockRepo struct {
	salesCount      int
	salesRevenue    decimal.Decimal
	salesCalls      int
	purchasesTotal  decimal.Decimal
	productTotal    int
	productLow      int
	chartPoints     []ChartPoint
	topItems        []TopItem
	paymentTotals   []PaymentMethodBreakdown
	paymentCalls    int
	kindBreakdown   []KindBreakdown
	mixed           []MixedPaymentSale
	vouchers        []VoucherEntry
	reconciliations map[uuid.UUID]*RegisterReconciliation
	lowStock        []LowStockProduct
}

func (m *mockRepo) SalesTotals(ctx context.Context, dr DateRange) (int, decimal.Decimal, error) {
	m.salesCalls++
	return m.salesCount, m.salesRevenue, nil
}

func (m *mockRepo) PurchasesTotal(ctx context.Context, dr DateRange) (decimal.Decimal, error) {
	return m.purchasesTotal, nil
}

func (m *mockRepo) ProductCounts(ctx context.Context) (int, int, error) {
	return m.productTotal, m.productLow, nil
}

func (m *mockRepo) SalesChart(ctx context.Context, dr DateRange, unit string) ([]ChartPoint, error) {
	return m.chartPoints, nil
}

func (m *mockRepo) TopSellingItems(ctx context.Context, dr DateRange, limit int) ([]TopItem, error) {
	if limit < len(m.topItems) {
		return m.topItems[:limit], nil
	}
	return m.topItems, nil
}

func (m *mockRepo) SalesByKind(ctx context.Context, dr DateRange) ([]KindBreakdown, error) {
	return m.kindBreakdown, nil
}

func (m *mockRepo) PaymentTotals(ctx context.Context, dr DateRange) ([]PaymentMethodBreakdown, error) {
	m.paymentCalls++
	out := make([]PaymentMethodBreakdown, len(m.paymentTotals))
	copy(out, m.paymentTotals)
	return out, nil
}

func (m *mockRepo) MixedPaymentSales(ctx context.Context, dr DateRange) ([]MixedPaymentSale, error) {
	return m.mixed, nil
}

func (m *mockRepo) Vouchers(ctx context.Context, dr DateRange) ([]VoucherEntry, error) {
	return m.vouchers, nil
}

func (m *mockRepo) RegisterWithPayments(ctx context.Context, registerID uuid.UUID) (*RegisterReconciliation, error) {
	rec, ok := m.reconciliations[registerID]
	if !ok {
		return nil, fmt.Errorf("register %s: %w", registerID, shared.ErrNotFound)
	}
	return rec, nil
}

func (m *mockRepo) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	return m.lowStock, nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache, time.UTC), cache
}

func TestDashboardStatsAggregation(t *testing.T) {
	repo := &mockRepo{
		salesCount:     12,
		salesRevenue:   decimal.NewFromInt(120000),
		purchasesTotal: decimal.NewFromInt(45000),
		productTotal:   40,
		productLow:     3,
	}
	svc, _ := newTestService(t, repo)

	stats, err := svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Equal(t, 12, stats.TotalSales)
	require.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(120000)))
	require.True(t, stats.TotalExpenses.Equal(decimal.NewFromInt(45000)))
	require.True(t, stats.NetProfit.Equal(decimal.NewFromInt(75000)), "net %s", stats.NetProfit)
	require.Equal(t, 40, stats.TotalProducts)
	require.Equal(t, 3, stats.LowStockProductCount)
}

func TestDashboardStatsCachedUntilBump(t *testing.T) {
	repo := &mockRepo{salesRevenue: decimal.NewFromInt(100)}
	svc, cache := newTestService(t, repo)

	_, err := svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	first := repo.salesCalls

	_, err = svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Equal(t, first, repo.salesCalls, "second read must hit the cache")

	require.NoError(t, cache.Bump(context.Background()))

	_, err = svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Greater(t, repo.salesCalls, first, "bump must force recomputation")
}

func TestDashboardTodayFiguresRollOverAtMidnight(t *testing.T) {
	repo := &mockRepo{salesCount: 5, salesRevenue: decimal.NewFromInt(50000)}
	svc, _ := newTestService(t, repo)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	}

	stats, err := svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Equal(t, 5, stats.TodaySales)

	// Midnight passes with no writes, so the cache version never moves.
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 0, 1, 0, 0, time.UTC)
	}
	repo.salesCount = 0
	repo.salesRevenue = decimal.Zero

	stats, err = svc.GetDashboardStats(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Equal(t, 0, stats.TodaySales, "new business day must not reuse yesterday's cached figures")
	require.True(t, stats.TodayRevenue.IsZero())
}

func TestPaymentMethodPercentages(t *testing.T) {
	repo := &mockRepo{paymentTotals: []PaymentMethodBreakdown{
		{Method: "cash", Count: 3, Amount: decimal.NewFromInt(7500)},
		{Method: "card", Count: 1, Amount: decimal.NewFromInt(2500)},
	}}
	svc, _ := newTestService(t, repo)

	breakdown, err := svc.GetSalesByPaymentMethod(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	require.True(t, breakdown[0].Percentage.Equal(decimal.NewFromInt(75)), "cash %s", breakdown[0].Percentage)
	require.True(t, breakdown[1].Percentage.Equal(decimal.NewFromInt(25)), "card %s", breakdown[1].Percentage)
}

func TestPaymentMethodZeroDenominator(t *testing.T) {
	repo := &mockRepo{paymentTotals: []PaymentMethodBreakdown{
		{Method: "cash", Count: 0, Amount: decimal.Zero},
	}}
	svc, _ := newTestService(t, repo)

	breakdown, err := svc.GetSalesByPaymentMethod(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, breakdown, 1)
	require.True(t, breakdown[0].Percentage.IsZero(), "zero total must give 0%%, got %s", breakdown[0].Percentage)
}

func TestSalesChartRejectsUnknownPeriod(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	_, err := svc.GetSalesChart(context.Background(), "fortnight")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDailySalesDayBoundaryInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	svc := NewService(&mockRepo{}, nil, loc)
	// 2026-03-10 in Bogota runs 05:00 UTC same day to 05:00 UTC next day.
	dr := svc.dayRange(time.Date(2026, 3, 10, 12, 0, 0, 0, loc))
	require.Equal(t, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC), dr.From)
	require.Equal(t, time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC), dr.To)
}

func TestRegisterReconciliationPercentages(t *testing.T) {
	registerID := uuid.New()
	repo := &mockRepo{reconciliations: map[uuid.UUID]*RegisterReconciliation{
		registerID: {
			RegisterID:    registerID,
			OpeningAmount: decimal.NewFromInt(50000),
			Breakdown: []PaymentMethodBreakdown{
				{Method: "cash", Count: 3, Amount: decimal.NewFromInt(30000)},
				{Method: "nequi", Count: 1, Amount: decimal.NewFromInt(10000)},
			},
		},
	}}
	svc, _ := newTestService(t, repo)

	rec, err := svc.GetRegisterReconciliation(context.Background(), registerID)
	require.NoError(t, err)
	require.True(t, rec.Breakdown[0].Percentage.Equal(decimal.NewFromInt(75)))
	require.True(t, rec.Breakdown[1].Percentage.Equal(decimal.NewFromInt(25)))

	_, err = svc.GetRegisterReconciliation(context.Background(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
