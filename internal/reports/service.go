package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort exposes the aggregation queries the service relies on.
type RepositoryPort interface {
	SalesTotals(ctx context.Context, dr DateRange) (int, decimal.Decimal, error)
	PurchasesTotal(ctx context.Context, dr DateRange) (decimal.Decimal, error)
	ProductCounts(ctx context.Context) (int, int, error)
	SalesChart(ctx context.Context, dr DateRange, unit string) ([]ChartPoint, error)
	TopSellingItems(ctx context.Context, dr DateRange, limit int) ([]TopItem, error)
	SalesByKind(ctx context.Context, dr DateRange) ([]KindBreakdown, error)
	PaymentTotals(ctx context.Context, dr DateRange) ([]PaymentMethodBreakdown, error)
	MixedPaymentSales(ctx context.Context, dr DateRange) ([]MixedPaymentSale, error)
	Vouchers(ctx context.Context, dr DateRange) ([]VoucherEntry, error)
	RegisterWithPayments(ctx context.Context, registerID uuid.UUID) (*RegisterReconciliation, error)
	LowStockProducts(ctx context.Context) ([]LowStockProduct, error)
}

// Service coordinates ledger aggregation with the versioned cache. All
// figures come from summation over persisted rows; the cache only avoids
// recomputing a result the ledger has not moved past.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	loc   *time.Location
	now   func() time.Time
}

// NewService wires the repository with a Cache helper. loc determines
// business-day boundaries; nil means UTC.
func NewService(repo RepositoryPort, cache *Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, cache: cache, loc: loc, now: time.Now}
}

// dayRange returns the UTC window covering one business day in s.loc.
func (s *Service) dayRange(day time.Time) DateRange {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	return DateRange{From: start.UTC(), To: start.AddDate(0, 0, 1).UTC()}
}

// GetDashboardStats fans the four independent aggregations out and joins
// them into one summary.
func (s *Service) GetDashboardStats(ctx context.Context, dr DateRange) (*DashboardStats, error) {
	today := s.dayRange(s.now().In(s.loc))

	var stats DashboardStats
	err := s.cache.FetchJSON(ctx, s.key(ctx, keyDashboard(dr, today)), &stats, func(ctx context.Context) (interface{}, error) {
		var out DashboardStats

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			count, revenue, err := s.repo.SalesTotals(ctx, dr)
			if err != nil {
				return err
			}
			out.TotalSales = count
			out.TotalRevenue = revenue
			return nil
		})
		g.Go(func() error {
			expenses, err := s.repo.PurchasesTotal(ctx, dr)
			if err != nil {
				return err
			}
			out.TotalExpenses = expenses
			return nil
		})
		g.Go(func() error {
			total, low, err := s.repo.ProductCounts(ctx)
			if err != nil {
				return err
			}
			out.TotalProducts = total
			out.LowStockProductCount = low
			return nil
		})
		g.Go(func() error {
			count, revenue, err := s.repo.SalesTotals(ctx, today)
			if err != nil {
				return err
			}
			out.TodaySales = count
			out.TodayRevenue = revenue
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out.NetProfit = out.TotalRevenue.Sub(out.TotalExpenses)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetSalesChart returns bucketed revenue for a trailing window:
// week = last 7 days by day, month = last 30 days by day,
// year = last 12 months by month.
func (s *Service) GetSalesChart(ctx context.Context, period string) ([]ChartPoint, error) {
	now := s.now().In(s.loc)
	today := s.dayRange(now)

	var dr DateRange
	var unit string
	switch period {
	case "week":
		dr = DateRange{From: today.To.AddDate(0, 0, -7), To: today.To}
		unit = "day"
	case "month":
		dr = DateRange{From: today.To.AddDate(0, 0, -30), To: today.To}
		unit = "day"
	case "year":
		dr = DateRange{From: today.To.AddDate(-1, 0, 0), To: today.To}
		unit = "month"
	default:
		return nil, fmt.Errorf("reports: period must be week, month or year: %w", shared.ErrValidation)
	}

	var points []ChartPoint
	err := s.cache.FetchJSON(ctx, s.key(ctx, keyChart(dr, unit)), &points, func(ctx context.Context) (interface{}, error) {
		return s.repo.SalesChart(ctx, dr, unit)
	})
	return points, err
}

// GetTopSellingItems ranks items by quantity sold within the range.
func (s *Service) GetTopSellingItems(ctx context.Context, limit int, dr DateRange) ([]TopItem, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []TopItem
	err := s.cache.FetchJSON(ctx, s.key(ctx, keyTopItems(dr, limit)), &items, func(ctx context.Context) (interface{}, error) {
		return s.repo.TopSellingItems(ctx, dr, limit)
	})
	return items, err
}

// GetSalesByKind splits revenue between product and service lines.
func (s *Service) GetSalesByKind(ctx context.Context, dr DateRange) ([]KindBreakdown, error) {
	return s.repo.SalesByKind(ctx, dr)
}

// GetSalesByPaymentMethod returns per-tender totals with each method's
// share of all collected money. An empty ledger yields 0%, never an error.
func (s *Service) GetSalesByPaymentMethod(ctx context.Context, dr DateRange) ([]PaymentMethodBreakdown, error) {
	var breakdown []PaymentMethodBreakdown
	err := s.cache.FetchJSON(ctx, s.key(ctx, keyPayments(dr)), &breakdown, func(ctx context.Context) (interface{}, error) {
		totals, err := s.repo.PaymentTotals(ctx, dr)
		if err != nil {
			return nil, err
		}
		return withPercentages(totals), nil
	})
	return breakdown, err
}

// GetMixedPaymentSales lists sales settled with multiple tender types.
func (s *Service) GetMixedPaymentSales(ctx context.Context, dr DateRange) ([]MixedPaymentSale, error) {
	return s.repo.MixedPaymentSales(ctx, dr)
}

// GetVouchers lists payments carrying voucher numbers.
func (s *Service) GetVouchers(ctx context.Context, dr DateRange) ([]VoucherEntry, error) {
	return s.repo.Vouchers(ctx, dr)
}

// GetDailySales totals one business day including the tender breakdown.
func (s *Service) GetDailySales(ctx context.Context, day time.Time) (*DailySalesSummary, error) {
	dr := s.dayRange(day.In(s.loc))

	count, revenue, err := s.repo.SalesTotals(ctx, dr)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.PaymentTotals(ctx, dr)
	if err != nil {
		return nil, err
	}
	return &DailySalesSummary{
		Date:         day.In(s.loc).Format("2006-01-02"),
		TotalSales:   count,
		TotalRevenue: revenue,
		ByMethod:     withPercentages(totals),
	}, nil
}

// GetRegisterReconciliation surfaces one drawer session against its
// recorded payments.
func (s *Service) GetRegisterReconciliation(ctx context.Context, registerID uuid.UUID) (*RegisterReconciliation, error) {
	rec, err := s.repo.RegisterWithPayments(ctx, registerID)
	if err != nil {
		return nil, err
	}
	rec.Breakdown = withPercentages(rec.Breakdown)
	return rec, nil
}

// GetLowStockProducts lists physical products at or below threshold.
func (s *Service) GetLowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	return s.repo.LowStockProducts(ctx)
}

func (s *Service) key(ctx context.Context, parts []string) string {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		// Version lookup failed: fall back to an unversioned key so the
		// read still works, at worst recomputed.
		return "reports:uncached:" + strconv.FormatInt(s.now().UnixNano(), 10)
	}
	return key
}

// withPercentages fills each method's share of the grand total. A zero
// denominator yields 0 for every row.
func withPercentages(totals []PaymentMethodBreakdown) []PaymentMethodBreakdown {
	grand := decimal.Zero
	for _, t := range totals {
		grand = grand.Add(t.Amount)
	}
	hundred := decimal.NewFromInt(100)
	for i := range totals {
		if grand.IsZero() {
			totals[i].Percentage = decimal.Zero
			continue
		}
		totals[i].Percentage = totals[i].Amount.Mul(hundred).Div(grand).Round(2)
	}
	return totals
}
