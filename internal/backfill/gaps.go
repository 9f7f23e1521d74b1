package backfill

import (
	"context"
	"time"
)

// QuoteDateSource provides the calendar dates that already have a stored
// quote for a token
type QuoteDateSource interface {
	QuoteDates(ctx context.Context, tokenID int64, start, end time.Time) ([]time.Time, error)
}

// GapCalculator computes which calendar dates in a range have no stored
// quote. It performs no network I/O and is safe to call repeatedly.
type GapCalculator struct {
	store QuoteDateSource
}

// NewGapCalculator creates a gap calculator over a quote date source
func NewGapCalculator(store QuoteDateSource) *GapCalculator {
	return &GapCalculator{store: store}
}

// MissingDates enumerates every calendar date in [start, end] inclusive and
// returns those without a stored quote, ascending. A start after end yields
// an empty result, not an error.
func (g *GapCalculator) MissingDates(ctx context.Context, tokenID int64, start, end time.Time) ([]time.Time, error) {
	start = Day(start)
	end = Day(end)

	if start.After(end) {
		return nil, nil
	}

	existing, err := g.store.QuoteDates(ctx, tokenID, start, end)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]struct{}, len(existing))
	for _, d := range existing {
		seen[Day(d)] = struct{}{}
	}

	var missing []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := seen[d]; !ok {
			missing = append(missing, d)
		}
	}

	return missing, nil
}

// Day normalizes a timestamp to its UTC calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
