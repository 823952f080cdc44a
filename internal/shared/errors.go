package shared

import "errors"

// Sentinel errors shared across the commerce engine. Domain packages wrap
// these with context; the HTTP layer maps them to status codes.
var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates a unique-constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock indicates a sale line requested more units than on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientPayment indicates the recorded payments do not cover the sale total.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrInvalidState indicates an operation not permitted in the entity's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates malformed input rejected before the operation ran.
	ErrValidation = errors.New("validation failed")
)
