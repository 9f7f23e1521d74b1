package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is the canonical daily quote shape returned by exchange clients
type Candle struct {
	Date   time.Time
	Open   decimal.Decimal
	Close  decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// Client fetches market data from one exchange account.
// Implementations never write to storage; they only perform the outbound call
// and normalize the response.
type Client interface {
	// FetchQuoteRange fetches candles covering [start, end] at the given
	// interval. A well-formed empty result yields an empty slice, not an
	// error, so callers can distinguish "no data" from a failed request.
	FetchQuoteRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Candle, error)

	// Ping verifies connectivity and credentials against the exchange
	Ping(ctx context.Context) error
}

var (
	// ErrConnectivity marks network failures, timeouts and non-2xx responses
	ErrConnectivity = errors.New("exchange connectivity failure")

	// ErrAuth marks exchange-reported authentication failures, including
	// error codes delivered in an HTTP 200 body
	ErrAuth = errors.New("exchange authentication failed")

	// ErrUnsupported marks exchanges with no registered client implementation
	ErrUnsupported = errors.New("unsupported exchange")
)
