package models

import (
	"fmt"
	"strings"
	"time"
)

// ExchangeCredential holds API credentials for one exchange account.
// Secret material is write-only in any external representation.
type ExchangeCredential struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"user_id" db:"user_id"`
	Exchange   string `json:"exchange" db:"exchange"` // e.g. "bybit"
	BaseURL    string `json:"base_url" db:"base_url"`
	APIKey     string `json:"-" db:"api_key"`
	APISecret  string `json:"-" db:"api_secret"`
	Passphrase string `json:"-" db:"passphrase"`

	// Operations the account declared support for, e.g. "spot,kline"
	Operations string `json:"operations" db:"operations"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SupportsOperation reports whether the credential declares support for op
func (c *ExchangeCredential) SupportsOperation(op string) bool {
	for _, declared := range strings.Split(c.Operations, ",") {
		if strings.EqualFold(strings.TrimSpace(declared), op) {
			return true
		}
	}
	return false
}

// Validate checks credential fields before persistence
func (c *ExchangeCredential) Validate() error {
	if strings.TrimSpace(c.Exchange) == "" {
		return fmt.Errorf("exchange name is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("API key and secret are required")
	}
	return nil
}
