package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// ErrUnsupportedExchange is returned when a token has no linked credential or
// its exchange has no registered client implementation
var ErrUnsupportedExchange = exchange.ErrUnsupported

// QuoteStore persists quotes under the one-quote-per-token-per-day invariant
type QuoteStore interface {
	QuoteDateSource
	UpsertQuotes(ctx context.Context, quotes []*models.Quote) error
}

// CredentialSource resolves the exchange credential a token's quotes are
// sourced from; (nil, nil) means the token has none
type CredentialSource interface {
	CredentialForToken(ctx context.Context, token *models.Token) (*models.ExchangeCredential, error)
}

// TokenSource resolves tokens by id
type TokenSource interface {
	GetTokenByID(ctx context.Context, id int64) (*models.Token, error)
}

// Result summarizes one backfill invocation
type Result struct {
	TokenID int64     `json:"token_id"`
	Symbol  string    `json:"symbol"`
	Missing int       `json:"missing"`
	Stored  int       `json:"stored"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
	NoOp    bool      `json:"noop"`
}

// Orchestrator coordinates gap computation, the exchange fetch and idempotent
// persistence for one asset at a time
type Orchestrator struct {
	store    QuoteStore
	creds    CredentialSource
	tokens   TokenSource
	registry *exchange.Registry
	cfg      *config.ExchangeConfig
	gaps     *GapCalculator
	logger   *logrus.Entry
	base     *logrus.Logger
	now      func() time.Time
}

// NewOrchestrator creates a backfill orchestrator
func NewOrchestrator(
	store QuoteStore,
	creds CredentialSource,
	tokens TokenSource,
	registry *exchange.Registry,
	cfg *config.ExchangeConfig,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		creds:    creds,
		tokens:   tokens,
		registry: registry,
		cfg:      cfg,
		gaps:     NewGapCalculator(store),
		logger:   logger.WithField("component", "backfill"),
		base:     logger,
		now:      time.Now,
	}
}

// Backfill fills all quote gaps between the lot's purchase date and today
func (o *Orchestrator) Backfill(ctx context.Context, asset *models.Asset) (*Result, error) {
	token, err := o.tokens.GetTokenByID(ctx, asset.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token %d: %w", asset.TokenID, err)
	}
	if token == nil {
		return nil, fmt.Errorf("token %d not found", asset.TokenID)
	}

	return o.BackfillToken(ctx, token, asset.PurchaseDate)
}

// BackfillToken fills all quote gaps for a token between from and today.
// The whole invocation is all-or-nothing: a failed fetch persists nothing,
// and the unchanged gaps are naturally retried on the next trigger.
func (o *Orchestrator) BackfillToken(ctx context.Context, token *models.Token, from time.Time) (*Result, error) {
	cred, err := o.creds.CredentialForToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential for %s: %w", token.Symbol, err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: token %s has no linked credential", ErrUnsupportedExchange, token.Symbol)
	}

	client, err := o.registry.ClientFor(cred, o.cfg, o.base)
	if err != nil {
		return nil, err
	}

	today := Day(o.now())
	missing, err := o.gaps.MissingDates(ctx, token.ID, from, today)
	if err != nil {
		return nil, fmt.Errorf("failed to compute missing dates for %s: %w", token.Symbol, err)
	}

	result := &Result{TokenID: token.ID, Symbol: token.Symbol, Missing: len(missing)}

	// Nothing to do; avoids a redundant call against a rate-limited API
	if len(missing) == 0 {
		result.NoOp = true
		o.logger.WithField("symbol", token.Symbol).Debug("Quotes already up to date")
		return result, nil
	}

	// One range request spanning the whole gap, not one per missing day
	result.From = missing[0]
	result.To = missing[len(missing)-1]

	candles, err := client.FetchQuoteRange(ctx, token.Symbol, result.From, result.To, o.cfg.DefaultInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes for %s: %w", token.Symbol, err)
	}

	quotes := make([]*models.Quote, 0, len(candles))
	for _, candle := range candles {
		quotes = append(quotes, &models.Quote{
			TokenID: token.ID,
			Date:    candle.Date,
			Open:    candle.Open,
			Close:   candle.Close,
			High:    candle.High,
			Low:     candle.Low,
			Volume:  candle.Volume,
		})
	}

	if err := o.store.UpsertQuotes(ctx, quotes); err != nil {
		return nil, fmt.Errorf("failed to persist quotes for %s: %w", token.Symbol, err)
	}
	result.Stored = len(quotes)

	o.logger.WithFields(logrus.Fields{
		"symbol":  token.Symbol,
		"missing": result.Missing,
		"stored":  result.Stored,
		"from":    result.From.Format("2006-01-02"),
		"to":      result.To.Format("2006-01-02"),
	}).Info("Backfill completed")

	return result, nil
}
