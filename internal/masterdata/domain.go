package masterdata

import (
	"time"

	"github.com/google/uuid"
)

// Customer is an optional buyer reference on sales.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier sources the products received through purchases.
type Supplier struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Document    string    `json:"document,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is a back-office operator. The password hash never leaves the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomerInput carries the mutable customer fields.
type CustomerInput struct {
	Name     string
	Document string
	Email    string
	Phone    string
	Address  string
}

// SupplierInput carries the mutable supplier fields.
type SupplierInput struct {
	Name        string
	Document    string
	ContactName string
	Email       string
	Phone       string
	Address     string
}

// UserInput carries the mutable user fields. Password is hashed before
// persistence.
type UserInput struct {
	Name     string
	Email    string
	Role     string
	Password string
}
