package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus models the purchase lifecycle. Purchases are registered as
// received: stock is incremented at creation time.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusReceived  PurchaseStatus = "received"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// Purchase is the supplier invoice header.
type Purchase struct {
	ID            uuid.UUID        `json:"id"`
	SupplierID    uuid.UUID        `json:"supplier_id"`
	UserID        uuid.UUID        `json:"user_id"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Total         decimal.Decimal  `json:"total"`
	Status        PurchaseStatus   `json:"status"`
	PurchaseDate  time.Time        `json:"purchase_date"`
	Notes         string           `json:"notes,omitempty"`
	Details       []PurchaseDetail `json:"details"`
	CreatedAt     time.Time        `json:"created_at"`
}

// PurchaseDetail is one received product line.
type PurchaseDetail struct {
	ID         uuid.UUID       `json:"id"`
	PurchaseID uuid.UUID       `json:"purchase_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// DetailInput is one requested purchase line.
type DetailInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  decimal.Decimal
}

// CreatePurchaseInput carries everything needed to register a purchase.
type CreatePurchaseInput struct {
	SupplierID    uuid.UUID
	UserID        uuid.UUID
	InvoiceNumber string
	Notes         string
	Details       []DetailInput
}
