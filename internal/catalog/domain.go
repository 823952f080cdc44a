package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType distinguishes stocked goods from priced actions.
type ProductType string

const (
	// ProductTypePhysical marks items whose on-hand stock is tracked.
	ProductTypePhysical ProductType = "physical"
	// ProductTypeService marks products sold without stock tracking.
	ProductTypeService ProductType = "service"
)

// Product is a sellable catalog entry. Stock is only meaningful for
// physical products and never goes negative.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Barcode     string          `json:"barcode,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Type        ProductType     `json:"type"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Service is a non-stock sellable item, e.g. photocopying.
type Service struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LowStock reports whether the product is at or below its alert threshold.
func (p Product) LowStock() bool {
	return p.Type == ProductTypePhysical && p.Stock <= p.MinStock
}

// ProductInput carries the mutable fields for create/update.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Stock       int
	MinStock    int
	Barcode     string
	SKU         string
	Type        ProductType
}

// ServiceInput carries the mutable fields for create/update.
type ServiceInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
}
