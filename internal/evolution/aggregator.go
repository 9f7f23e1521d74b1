package evolution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

// ErrNoAssets is returned when the user owns zero lots, so callers can tell
// an onboarding state apart from an empty period
var ErrNoAssets = errors.New("user has no assets")

// Grouping selects the period bucketing for the evolution series
type Grouping string

const (
	GroupingMonthly Grouping = "monthly"
	GroupingAnnual  Grouping = "annual"
)

// ParseGrouping validates a grouping query parameter; empty means monthly
func ParseGrouping(s string) (Grouping, error) {
	switch s {
	case "", string(GroupingMonthly):
		return GroupingMonthly, nil
	case string(GroupingAnnual):
		return GroupingAnnual, nil
	default:
		return "", fmt.Errorf("invalid grouping: %s", s)
	}
}

// LotSource enumerates the purchase lots owned by a user
type LotSource interface {
	AssetsByUser(ctx context.Context, userID int64) ([]*models.Asset, error)
}

// QuoteSource reads stored quotes; implementations return (nil, nil) when no
// quote exists
type QuoteSource interface {
	QuoteOnDate(ctx context.Context, tokenID int64, date time.Time) (*models.Quote, error)
	QuotesFrom(ctx context.Context, tokenID int64, from time.Time) ([]*models.Quote, error)
	QuotesInRange(ctx context.Context, tokenID int64, start, end time.Time) ([]*models.Quote, error)
	LatestQuote(ctx context.Context, tokenID int64) (*models.Quote, error)
}

// TokenSource resolves tokens by id
type TokenSource interface {
	GetTokenByID(ctx context.Context, id int64) (*models.Token, error)
}

// PeriodChange is one period of the portfolio evolution series.
// Value carries the net change as a decimal string so precision survives
// serialization.
type PeriodChange struct {
	Period string `json:"period"`
	Value  string `json:"value"`

	Start time.Time `json:"-"`
}

// Aggregator builds portfolio evolution, allocation and price history views
// from stored lots and quotes
type Aggregator struct {
	lots   LotSource
	quotes QuoteSource
	tokens TokenSource
	logger *logrus.Entry
}

// NewAggregator creates an evolution aggregator
func NewAggregator(lots LotSource, quotes QuoteSource, tokens TokenSource, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		lots:   lots,
		quotes: quotes,
		tokens: tokens,
		logger: logger.WithField("component", "evolution"),
	}
}

// Evolution computes the user's net portfolio change per period across all
// lots and tokens, most recent period first
func (a *Aggregator) Evolution(ctx context.Context, userID int64, grouping Grouping) ([]PeriodChange, error) {
	assets, err := a.lots.AssetsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}

	sums := make(map[time.Time]decimal.Decimal)

	for _, asset := range assets {
		if err := a.accumulateLot(ctx, asset, grouping, sums); err != nil {
			return nil, err
		}
	}

	series := make([]PeriodChange, 0, len(sums))
	for start, value := range sums {
		series = append(series, PeriodChange{
			Period: periodLabel(start, grouping),
			Value:  value.String(),
			Start:  start,
		})
	}

	// Most recent period first
	sort.Slice(series, func(i, j int) bool {
		return series[i].Start.After(series[j].Start)
	})

	return series, nil
}

// accumulateLot adds one lot's per-period net change into the shared sums.
// A lot whose acquisition date has no stored quote is skipped rather than
// failing the whole aggregation.
func (a *Aggregator) accumulateLot(ctx context.Context, asset *models.Asset, grouping Grouping, sums map[time.Time]decimal.Decimal) error {
	acquired := day(asset.PurchaseDate)

	base, err := a.quotes.QuoteOnDate(ctx, asset.TokenID, acquired)
	if err != nil {
		return fmt.Errorf("failed to get acquisition quote: %w", err)
	}
	if base == nil {
		a.logger.WithFields(logrus.Fields{
			"asset_id": asset.ID,
			"token_id": asset.TokenID,
			"date":     acquired.Format("2006-01-02"),
		}).Warn("No quote on acquisition date, skipping lot")
		return nil
	}

	quotes, err := a.quotes.QuotesFrom(ctx, asset.TokenID, acquired)
	if err != nil {
		return fmt.Errorf("failed to get quotes: %w", err)
	}

	// Last quote of each period, in ascending period order; the input is
	// already sorted ascending by date
	var periods []time.Time
	last := make(map[time.Time]*models.Quote)
	for _, quote := range quotes {
		start := periodStart(quote.Day(), grouping)
		if _, ok := last[start]; !ok {
			periods = append(periods, start)
		}
		last[start] = quote
	}

	// The anchor for the first period is the lot's own acquisition quote;
	// afterwards each period anchors on the prior period's last quote.
	anchor := base
	for _, start := range periods {
		plast := last[start]

		var change decimal.Decimal
		if plast.SameDay(base) {
			// Inception period with no quotes beyond the purchase day:
			// valued absolutely instead of as a delta
			change = plast.Close.Mul(asset.Quantity)
		} else {
			change = plast.Close.Sub(anchor.Close).Mul(asset.Quantity)
		}

		sums[start] = sums[start].Add(change)
		anchor = plast
	}

	return nil
}

// periodStart truncates a date to the first day of its period
func periodStart(d time.Time, grouping Grouping) time.Time {
	if grouping == GroupingAnnual {
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// periodLabel renders a period start as its user-facing label
func periodLabel(start time.Time, grouping Grouping) string {
	if grouping == GroupingAnnual {
		return start.Format("2006")
	}
	return start.Format("January 2006")
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
