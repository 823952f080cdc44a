package cashregister

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterStatus models the drawer session lifecycle. CLOSED is terminal:
// a user opens a fresh register row for the next shift.
type RegisterStatus string

const (
	RegisterStatusOpen   RegisterStatus = "open"
	RegisterStatusClosed RegisterStatus = "closed"
)

// CashRegister is one cashier's drawer session. ExpectedAmount and
// Difference are snapshotted at close time: opening amount plus the cash
// payments recorded against the register, and the delta to the counted
// closing amount.
type CashRegister struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	ClosingAmount  *decimal.Decimal `json:"closing_amount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expected_amount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	Status         RegisterStatus   `json:"status"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
