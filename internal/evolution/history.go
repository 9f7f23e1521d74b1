package evolution

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

// HistoryGrouping selects the bucketing for a token's price history
type HistoryGrouping string

const (
	HistoryWeekly      HistoryGrouping = "weekly"
	HistoryFortnightly HistoryGrouping = "fortnightly"
	HistoryMonthly     HistoryGrouping = "monthly"
)

// ParseHistoryGrouping validates a history grouping parameter; empty means
// monthly
func ParseHistoryGrouping(s string) (HistoryGrouping, error) {
	switch s {
	case "", string(HistoryMonthly):
		return HistoryMonthly, nil
	case string(HistoryWeekly):
		return HistoryWeekly, nil
	case string(HistoryFortnightly):
		return HistoryFortnightly, nil
	default:
		return "", fmt.Errorf("invalid grouping: %s", s)
	}
}

// PricePoint is one bucket of a token's price history
type PricePoint struct {
	Period   string `json:"period"`
	AvgClose string `json:"avg_close"`
}

// PriceHistory returns the average close per bucket for one token, ascending.
// When from/to are zero the whole stored history is used.
func (a *Aggregator) PriceHistory(ctx context.Context, tokenID int64, grouping HistoryGrouping, from, to time.Time) ([]PricePoint, error) {
	quotes, err := a.rangeQuotes(ctx, tokenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}

	type bucket struct {
		sum   decimal.Decimal
		count int64
	}

	buckets := make(map[time.Time]*bucket)
	var starts []time.Time

	for _, quote := range quotes {
		start := historyBucketStart(quote.Day(), grouping)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{}
			buckets[start] = b
			starts = append(starts, start)
		}
		b.sum = b.sum.Add(quote.Close)
		b.count++
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	points := make([]PricePoint, 0, len(starts))
	for _, start := range starts {
		b := buckets[start]
		points = append(points, PricePoint{
			Period:   historyBucketLabel(start, grouping),
			AvgClose: b.sum.Div(decimal.NewFromInt(b.count)).String(),
		})
	}

	return points, nil
}

func (a *Aggregator) rangeQuotes(ctx context.Context, tokenID int64, from, to time.Time) ([]*models.Quote, error) {
	if !from.IsZero() && !to.IsZero() {
		return a.quotes.QuotesInRange(ctx, tokenID, day(from), day(to))
	}
	return a.quotes.QuotesFrom(ctx, tokenID, day(from))
}

// historyBucketStart truncates a date to the start of its bucket.
// Weeks start on Monday; fortnights split a month at day 16.
func historyBucketStart(d time.Time, grouping HistoryGrouping) time.Time {
	switch grouping {
	case HistoryWeekly:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case HistoryFortnightly:
		if d.Day() <= 15 {
			return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		return time.Date(d.Year(), d.Month(), 16, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func historyBucketLabel(start time.Time, grouping HistoryGrouping) string {
	switch grouping {
	case HistoryWeekly:
		return start.Format("2006-01-02")
	case HistoryFortnightly:
		half := 1
		if start.Day() > 1 {
			half = 2
		}
		return fmt.Sprintf("%s H%d", start.Format("January 2006"), half)
	default:
		return start.Format("January 2006")
	}
}
