package evolution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

func TestAllocationNoAssets(t *testing.T) {
	lots := &mockLots{}
	lots.On("AssetsByUser", mock.Anything, int64(7)).Return([]*models.Asset{}, nil)

	agg := testAggregator(lots, &mockQuotes{}, &mockTokenSource{})

	_, err := agg.Allocation(context.Background(), 7)
	assert.True(t, errors.Is(err, ErrNoAssets))
}

func TestAllocationGroupsLotsPerToken(t *testing.T) {
	assets := []*models.Asset{
		{ID: 1, TokenID: 1, UserID: 7, Quantity: decimal.NewFromInt(1), PurchaseDate: date(2024, time.January, 1)},
		{ID: 2, TokenID: 1, UserID: 7, Quantity: decimal.NewFromInt(2), PurchaseDate: date(2024, time.February, 1)},
		{ID: 3, TokenID: 2, UserID: 7, Quantity: decimal.NewFromInt(1), PurchaseDate: date(2024, time.March, 1)},
	}

	lots := &mockLots{}
	lots.On("AssetsByUser", mock.Anything, int64(7)).Return(assets, nil)

	tokens := &mockTokenSource{}
	tokens.On("GetTokenByID", mock.Anything, int64(1)).Return(&models.Token{ID: 1, Name: "Bitcoin", Symbol: "BTC"}, nil)
	tokens.On("GetTokenByID", mock.Anything, int64(2)).Return(&models.Token{ID: 2, Name: "Ethereum", Symbol: "ETH"}, nil)

	quotes := &mockQuotes{}
	quotes.On("LatestQuote", mock.Anything, int64(1)).Return(quote(1, date(2024, time.June, 1), 100), nil)
	quotes.On("LatestQuote", mock.Anything, int64(2)).Return(quote(2, date(2024, time.June, 1), 100), nil)

	agg := testAggregator(lots, quotes, tokens)

	report, err := agg.Allocation(context.Background(), 7)
	require.NoError(t, err)

	// token 1: 3 * 100 = 300, token 2: 1 * 100 = 100
	assert.Equal(t, "400", report.TotalValue)
	require.Len(t, report.Entries, 2)

	assert.Equal(t, "BTC", report.Entries[0].Symbol)
	assert.Equal(t, "300", report.Entries[0].Value)
	assert.Equal(t, "75.00", report.Entries[0].Percent)

	assert.Equal(t, "ETH", report.Entries[1].Symbol)
	assert.Equal(t, "100", report.Entries[1].Value)
	assert.Equal(t, "25.00", report.Entries[1].Percent)
}

func TestAllocationExcludesTokenWithoutQuotes(t *testing.T) {
	assets := []*models.Asset{
		{ID: 1, TokenID: 1, UserID: 7, Quantity: decimal.NewFromInt(2), PurchaseDate: date(2024, time.January, 1)},
		{ID: 2, TokenID: 2, UserID: 7, Quantity: decimal.NewFromInt(5), PurchaseDate: date(2024, time.February, 1)},
	}

	lots := &mockLots{}
	lots.On("AssetsByUser", mock.Anything, int64(7)).Return(assets, nil)

	tokens := &mockTokenSource{}
	tokens.On("GetTokenByID", mock.Anything, int64(1)).Return(&models.Token{ID: 1, Name: "Bitcoin", Symbol: "BTC"}, nil)
	tokens.On("GetTokenByID", mock.Anything, int64(2)).Return(&models.Token{ID: 2, Name: "Newcoin", Symbol: "NEW"}, nil)

	quotes := &mockQuotes{}
	quotes.On("LatestQuote", mock.Anything, int64(1)).Return(quote(1, date(2024, time.June, 1), 50), nil)
	quotes.On("LatestQuote", mock.Anything, int64(2)).Return(nil, nil)

	agg := testAggregator(lots, quotes, tokens)

	report, err := agg.Allocation(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "100", report.TotalValue)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "BTC", report.Entries[0].Symbol)
	assert.Equal(t, "100.00", report.Entries[0].Percent)
}
