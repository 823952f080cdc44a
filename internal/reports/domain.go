package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateRange bounds a report query. Zero values mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DashboardStats is the landing-page summary. Every figure is summed
// from the persisted sale/purchase rows at query time.
type DashboardStats struct {
	TotalSales           int             `json:"total_sales"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	TotalProducts        int             `json:"total_products"`
	LowStockProductCount int             `json:"low_stock_product_count"`
	TodaySales           int             `json:"today_sales"`
	TodayRevenue         decimal.Decimal `json:"today_revenue"`
}

// ChartPoint is one bucket of the sales chart.
type ChartPoint struct {
	Bucket  time.Time       `json:"bucket"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TopItem is one row of the best-seller report. Kind tells product and
// service lines apart.
type TopItem struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	TotalSold int             `json:"total_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// KindBreakdown splits revenue between product and service lines.
type KindBreakdown struct {
	Kind    string          `json:"kind"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// PaymentMethodBreakdown is one tender type's share of collected money.
// Percentage is 0 when nothing was collected at all.
type PaymentMethodBreakdown struct {
	Method     string          `json:"method"`
	Count      int             `json:"count"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MixedPaymentSale is a sale settled with more than one tender type.
type MixedPaymentSale struct {
	SaleID      uuid.UUID       `json:"sale_id"`
	Total       decimal.Decimal `json:"total"`
	Methods     []string        `json:"methods"`
	PaymentDate time.Time       `json:"payment_date"`
}

// VoucherEntry is a payment carrying a voucher number.
type VoucherEntry struct {
	SaleID          uuid.UUID       `json:"sale_id"`
	Method          string          `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	VoucherNumber   string          `json:"voucher_number"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DailySalesSummary totals one business day.
type DailySalesSummary struct {
	Date         string                   `json:"date"`
	TotalSales   int                      `json:"total_sales"`
	TotalRevenue decimal.Decimal          `json:"total_revenue"`
	ByMethod     []PaymentMethodBreakdown `json:"by_method"`
}

// RegisterReconciliation surfaces a drawer session against the payments
// recorded on it, per tender type.
type RegisterReconciliation struct {
	RegisterID     uuid.UUID                `json:"register_id"`
	UserID         uuid.UUID                `json:"user_id"`
	Status         string                   `json:"status"`
	OpenedAt       time.Time                `json:"opened_at"`
	ClosedAt       *time.Time               `json:"closed_at,omitempty"`
	OpeningAmount  decimal.Decimal          `json:"opening_amount"`
	ClosingAmount  *decimal.Decimal         `json:"closing_amount,omitempty"`
	ExpectedAmount *decimal.Decimal         `json:"expected_amount,omitempty"`
	Difference     *decimal.Decimal         `json:"difference,omitempty"`
	Breakdown      []PaymentMethodBreakdown `json:"breakdown"`
}

// LowStockProduct is a physical product at or below its alert threshold.
type LowStockProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
}
