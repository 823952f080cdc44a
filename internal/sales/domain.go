package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted tender types.
type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentTransfer  PaymentMethod = "transfer"
	PaymentCard      PaymentMethod = "card"
	PaymentNequi     PaymentMethod = "nequi"
	PaymentDaviplata PaymentMethod = "daviplata"
)

// Valid reports whether the method is a known tender type.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCard, PaymentNequi, PaymentDaviplata:
		return true
	}
	return false
}

// SaleStatus models the sale lifecycle.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// ItemKind distinguishes what a sale line references.
type ItemKind string

const (
	// ItemKindProduct lines reference the products table and may move stock.
	ItemKindProduct ItemKind = "product"
	// ItemKindService lines reference the services table and never touch stock.
	ItemKindService ItemKind = "service"
)

// Sale is the transaction header. Total is strictly the sum of line
// subtotals; tax and discount are recorded alongside, never folded in.
type Sale struct {
	ID             uuid.UUID       `json:"id"`
	Total          decimal.Decimal `json:"total"`
	Discount       decimal.Decimal `json:"discount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Status         SaleStatus      `json:"status"`
	Notes          string          `json:"notes,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	UserID         uuid.UUID       `json:"user_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	CashRegisterID *uuid.UUID      `json:"cash_register_id,omitempty"`
	Items          []SaleItem      `json:"items"`
	Payments       []SalePayment   `json:"payments"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SaleItem is one sold line. Exactly one of ProductID/ServiceID is set.
type SaleItem struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	ServiceID *uuid.UUID      `json:"service_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SalePayment records one tender applied to a sale.
type SalePayment struct {
	ID              uuid.UUID       `json:"id"`
	SaleID          uuid.UUID       `json:"sale_id"`
	Method          PaymentMethod   `json:"payment_method"`
	Amount          decimal.Decimal `json:"amount"`
	VoucherNumber   string          `json:"voucher_number,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LineInput is one requested sale line.
type LineInput struct {
	Kind      ItemKind
	ItemID    uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// PaymentInput is one requested tender.
type PaymentInput struct {
	Method          PaymentMethod
	Amount          decimal.Decimal
	VoucherNumber   string
	ReferenceNumber string
}

// CreateSaleInput carries everything needed to register a sale.
type CreateSaleInput struct {
	CustomerID     *uuid.UUID
	UserID         uuid.UUID
	CashRegisterID *uuid.UUID
	InvoiceNumber  string
	TaxAmount      decimal.Decimal
	Discount       decimal.Decimal
	Notes          string
	Items          []LineInput
	Payments       []PaymentInput
}

// ListFilter narrows sale listings.
type ListFilter struct {
	// Day filters to a single calendar day interpreted in the reporting
	// timezone. Zero means no date filter.
	Day     time.Time
	Page    int
	PerPage int
}
