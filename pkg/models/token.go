package models

import (
	"fmt"
	"strings"
	"time"
)

// Token represents a tracked crypto currency
type Token struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Symbol string `json:"symbol" db:"symbol"` // e.g. "BTC", unique system-wide
	Color  string `json:"color" db:"color"`
	UserID int64  `json:"user_id" db:"user_id"`

	// Tagged reference to the exchange credential used to source quotes.
	// A token with no credential cannot be backfilled.
	Exchange     string `json:"exchange,omitempty" db:"exchange"`
	CredentialID *int64 `json:"credential_id,omitempty" db:"credential_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasCredential reports whether the token is linked to an exchange credential
func (t *Token) HasCredential() bool {
	return t.CredentialID != nil && t.Exchange != ""
}

// Validate checks token fields before persistence
func (t *Token) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("token name is required")
	}

	symbol := strings.TrimSpace(t.Symbol)
	if symbol == "" {
		return fmt.Errorf("token symbol is required")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("token symbol too long: %s", symbol)
	}

	return nil
}
