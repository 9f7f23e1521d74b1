package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents one daily OHLCV record for a token.
// At most one quote exists per (token, date) pair.
type Quote struct {
	ID      int64           `json:"id" db:"id"`
	TokenID int64           `json:"token_id" db:"token_id"`
	Date    time.Time       `json:"date" db:"quote_date"`
	Open    decimal.Decimal `json:"open" db:"open"`
	Close   decimal.Decimal `json:"close" db:"close"`
	High    decimal.Decimal `json:"high" db:"high"`
	Low     decimal.Decimal `json:"low" db:"low"`
	Volume  decimal.Decimal `json:"volume" db:"volume"`
}

// Day returns the quote's calendar date normalized to UTC midnight
func (q *Quote) Day() time.Time {
	return time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether both quotes fall on the same calendar date
func (q *Quote) SameDay(other *Quote) bool {
	return other != nil && q.Day().Equal(other.Day())
}
