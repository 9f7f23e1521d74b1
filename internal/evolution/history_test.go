package evolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

func TestParseHistoryGrouping(t *testing.T) {
	g, err := ParseHistoryGrouping("")
	require.NoError(t, err)
	assert.Equal(t, HistoryMonthly, g)

	g, err = ParseHistoryGrouping("weekly")
	require.NoError(t, err)
	assert.Equal(t, HistoryWeekly, g)

	g, err = ParseHistoryGrouping("fortnightly")
	require.NoError(t, err)
	assert.Equal(t, HistoryFortnightly, g)

	_, err = ParseHistoryGrouping("daily")
	assert.Error(t, err)
}

func TestPriceHistoryMonthlyAverages(t *testing.T) {
	quotes := &mockQuotes{}
	quotes.On("QuotesFrom", mock.Anything, int64(1), mock.Anything).Return([]*models.Quote{
		quote(1, date(2024, time.January, 5), 10),
		quote(1, date(2024, time.January, 20), 20),
		quote(1, date(2024, time.February, 3), 30),
	}, nil)

	agg := testAggregator(&mockLots{}, quotes, &mockTokenSource{})

	points, err := agg.PriceHistory(context.Background(), 1, HistoryMonthly, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "January 2024", points[0].Period)
	assert.Equal(t, "15", points[0].AvgClose)
	assert.Equal(t, "February 2024", points[1].Period)
	assert.Equal(t, "30", points[1].AvgClose)
}

func TestPriceHistoryWeeklyBucketsStartMonday(t *testing.T) {
	quotes := &mockQuotes{}
	// 2024-01-10 is a Wednesday, 2024-01-15 a Monday
	quotes.On("QuotesFrom", mock.Anything, int64(1), mock.Anything).Return([]*models.Quote{
		quote(1, date(2024, time.January, 10), 10),
		quote(1, date(2024, time.January, 12), 20),
		quote(1, date(2024, time.January, 15), 40),
	}, nil)

	agg := testAggregator(&mockLots{}, quotes, &mockTokenSource{})

	points, err := agg.PriceHistory(context.Background(), 1, HistoryWeekly, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2024-01-08", points[0].Period)
	assert.Equal(t, "15", points[0].AvgClose)
	assert.Equal(t, "2024-01-15", points[1].Period)
	assert.Equal(t, "40", points[1].AvgClose)
}

func TestPriceHistoryFortnightlySplitsMonth(t *testing.T) {
	quotes := &mockQuotes{}
	quotes.On("QuotesFrom", mock.Anything, int64(1), mock.Anything).Return([]*models.Quote{
		quote(1, date(2024, time.January, 10), 10),
		quote(1, date(2024, time.January, 14), 20),
		quote(1, date(2024, time.January, 20), 50),
	}, nil)

	agg := testAggregator(&mockLots{}, quotes, &mockTokenSource{})

	points, err := agg.PriceHistory(context.Background(), 1, HistoryFortnightly, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "January 2024 H1", points[0].Period)
	assert.Equal(t, "15", points[0].AvgClose)
	assert.Equal(t, "January 2024 H2", points[1].Period)
	assert.Equal(t, "50", points[1].AvgClose)
}

func TestPriceHistoryRangeUsesBoundedQuery(t *testing.T) {
	from := date(2024, time.January, 1)
	to := date(2024, time.January, 31)

	quotes := &mockQuotes{}
	quotes.On("QuotesInRange", mock.Anything, int64(1), from, to).Return([]*models.Quote{
		quote(1, date(2024, time.January, 10), 10),
	}, nil)

	agg := testAggregator(&mockLots{}, quotes, &mockTokenSource{})

	points, err := agg.PriceHistory(context.Background(), 1, HistoryMonthly, from, to)
	require.NoError(t, err)
	require.Len(t, points, 1)
	quotes.AssertExpectations(t)
	quotes.AssertNotCalled(t, "QuotesFrom", mock.Anything, mock.Anything, mock.Anything)
}

func TestPriceHistoryEmpty(t *testing.T) {
	quotes := &mockQuotes{}
	quotes.On("QuotesFrom", mock.Anything, int64(1), mock.Anything).Return([]*models.Quote{}, nil)

	agg := testAggregator(&mockLots{}, quotes, &mockTokenSource{})

	points, err := agg.PriceHistory(context.Background(), 1, HistoryMonthly, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, points)
}
