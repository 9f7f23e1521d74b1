package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDateSource struct {
	dates []time.Time
	err   error
}

func (s *stubDateSource) QuoteDates(ctx context.Context, tokenID int64, start, end time.Time) ([]time.Time, error) {
	return s.dates, s.err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMissingDatesEmptyStore(t *testing.T) {
	calc := NewGapCalculator(&stubDateSource{})

	missing, err := calc.MissingDates(context.Background(), 1, date(2024, time.January, 10), date(2024, time.January, 12))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2024, time.January, 10),
		date(2024, time.January, 11),
		date(2024, time.January, 12),
	}, missing)
}

func TestMissingDatesExcludesStoredDates(t *testing.T) {
	store := &stubDateSource{dates: []time.Time{
		date(2024, time.January, 10),
		date(2024, time.January, 12),
		date(2024, time.January, 13),
	}}
	calc := NewGapCalculator(store)

	missing, err := calc.MissingDates(context.Background(), 1, date(2024, time.January, 10), date(2024, time.January, 31))
	require.NoError(t, err)

	// 22 days in range, 3 already stored
	assert.Len(t, missing, 19)
	assert.NotContains(t, missing, date(2024, time.January, 10))
	assert.NotContains(t, missing, date(2024, time.January, 12))
	assert.NotContains(t, missing, date(2024, time.January, 13))
	assert.Contains(t, missing, date(2024, time.January, 11))
	assert.Contains(t, missing, date(2024, time.January, 31))
}

func TestMissingDatesFullyCovered(t *testing.T) {
	store := &stubDateSource{dates: []time.Time{
		date(2024, time.March, 1),
		date(2024, time.March, 2),
		date(2024, time.March, 3),
	}}
	calc := NewGapCalculator(store)

	missing, err := calc.MissingDates(context.Background(), 1, date(2024, time.March, 1), date(2024, time.March, 3))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMissingDatesStartAfterEnd(t *testing.T) {
	calc := NewGapCalculator(&stubDateSource{})

	missing, err := calc.MissingDates(context.Background(), 1, date(2024, time.February, 28), date(2024, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMissingDatesNormalizesTimestamps(t *testing.T) {
	// Stored dates coming back with a time-of-day component still match
	store := &stubDateSource{dates: []time.Time{
		time.Date(2024, time.May, 2, 15, 30, 0, 0, time.UTC),
	}}
	calc := NewGapCalculator(store)

	start := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 3, 23, 59, 0, 0, time.UTC)

	missing, err := calc.MissingDates(context.Background(), 1, start, end)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		date(2024, time.May, 1),
		date(2024, time.May, 3),
	}, missing)
}

func TestMissingDatesSingleDay(t *testing.T) {
	calc := NewGapCalculator(&stubDateSource{})

	missing, err := calc.MissingDates(context.Background(), 1, date(2024, time.June, 15), date(2024, time.June, 15))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, time.June, 15)}, missing)
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, time.July, 4, 18, 45, 12, 999, time.UTC)
	assert.Equal(t, date(2024, time.July, 4), Day(ts))
}
