package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Asset represents a single purchase lot of a token
type Asset struct {
	ID            int64           `json:"id" db:"id"`
	TokenID       int64           `json:"token_id" db:"token_id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Quantity      decimal.Decimal `json:"quantity" db:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date" db:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Validate checks lot fields before persistence
func (a *Asset) Validate() error {
	if a.TokenID == 0 {
		return fmt.Errorf("token is required")
	}
	if a.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative")
	}
	if a.PurchasePrice.IsNegative() {
		return fmt.Errorf("purchase price must not be negative")
	}
	if a.PurchaseDate.IsZero() {
		return fmt.Errorf("purchase date is required")
	}
	return nil
}
