package backfill

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) QuoteDates(ctx context.Context, tokenID int64, start, end time.Time) ([]time.Time, error) {
	args := m.Called(ctx, tokenID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *mockStore) UpsertQuotes(ctx context.Context, quotes []*models.Quote) error {
	args := m.Called(ctx, quotes)
	return args.Error(0)
}

type mockCreds struct {
	mock.Mock
}

func (m *mockCreds) CredentialForToken(ctx context.Context, token *models.Token) (*models.ExchangeCredential, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeCredential), args.Error(1)
}

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) GetTokenByID(ctx context.Context, id int64) (*models.Token, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Token), args.Error(1)
}

type fakeClient struct {
	candles []exchange.Candle
	err     error

	gotSymbol string
	gotStart  time.Time
	gotEnd    time.Time
}

func (f *fakeClient) FetchQuoteRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]exchange.Candle, error) {
	f.gotSymbol = symbol
	f.gotStart = start
	f.gotEnd = end
	return f.candles, f.err
}

func (f *fakeClient) Ping(ctx context.Context) error {
	return nil
}

func testRegistry(client exchange.Client) *exchange.Registry {
	r := exchange.NewRegistry()
	r.Register("bybit", func(cred *models.ExchangeCredential, cfg *config.ExchangeConfig, logger *logrus.Logger) exchange.Client {
		return client
	})
	return r
}

func testOrchestrator(store QuoteStore, creds CredentialSource, tokens TokenSource, registry *exchange.Registry) *Orchestrator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.ExchangeConfig{DefaultInterval: "1D"}
	o := NewOrchestrator(store, creds, tokens, registry, cfg, logger)
	o.now = func() time.Time { return date(2024, time.January, 31) }
	return o
}

func testToken() *models.Token {
	credID := int64(9)
	return &models.Token{
		ID:           1,
		Symbol:       "BTCUSD",
		Name:         "Bitcoin",
		Exchange:     "bybit",
		CredentialID: &credID,
	}
}

func testCredential() *models.ExchangeCredential {
	return &models.ExchangeCredential{
		ID:        9,
		Exchange:  "bybit",
		BaseURL:   "https://api.bybit.com",
		APIKey:    "key",
		APISecret: "secret",
	}
}

func TestBackfillTokenNoCredential(t *testing.T) {
	creds := &mockCreds{}
	token := testToken()
	creds.On("CredentialForToken", mock.Anything, token).Return(nil, nil)

	o := testOrchestrator(&mockStore{}, creds, &mockTokens{}, testRegistry(&fakeClient{}))

	_, err := o.BackfillToken(context.Background(), token, date(2024, time.January, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedExchange))
}

func TestBackfillTokenUnregisteredExchange(t *testing.T) {
	creds := &mockCreds{}
	token := testToken()
	cred := testCredential()
	cred.Exchange = "kraken"
	creds.On("CredentialForToken", mock.Anything, token).Return(cred, nil)

	o := testOrchestrator(&mockStore{}, creds, &mockTokens{}, testRegistry(&fakeClient{}))

	_, err := o.BackfillToken(context.Background(), token, date(2024, time.January, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedExchange))
}

func TestBackfillTokenNoGapsIsNoOp(t *testing.T) {
	token := testToken()

	creds := &mockCreds{}
	creds.On("CredentialForToken", mock.Anything, token).Return(testCredential(), nil)

	// Every date in range already stored
	var stored []time.Time
	for d := date(2024, time.January, 10); !d.After(date(2024, time.January, 31)); d = d.AddDate(0, 0, 1) {
		stored = append(stored, d)
	}
	store := &mockStore{}
	store.On("QuoteDates", mock.Anything, token.ID, date(2024, time.January, 10), date(2024, time.January, 31)).Return(stored, nil)

	client := &fakeClient{}
	o := testOrchestrator(store, creds, &mockTokens{}, testRegistry(client))

	result, err := o.BackfillToken(context.Background(), token, date(2024, time.January, 10))
	require.NoError(t, err)

	assert.True(t, result.NoOp)
	assert.Zero(t, result.Stored)
	assert.Empty(t, client.gotSymbol, "no fetch should happen when there is nothing missing")
	store.AssertNotCalled(t, "UpsertQuotes", mock.Anything, mock.Anything)
}

func TestBackfillTokenFetchesSpanningRange(t *testing.T) {
	token := testToken()

	creds := &mockCreds{}
	creds.On("CredentialForToken", mock.Anything, token).Return(testCredential(), nil)

	store := &mockStore{}
	store.On("QuoteDates", mock.Anything, token.ID, mock.Anything, mock.Anything).Return([]time.Time{
		date(2024, time.January, 10),
		date(2024, time.January, 11),
	}, nil)

	client := &fakeClient{candles: []exchange.Candle{
		{
			Date:   date(2024, time.January, 12),
			Open:   decimal.NewFromInt(100),
			Close:  decimal.NewFromInt(105),
			High:   decimal.NewFromInt(110),
			Low:    decimal.NewFromInt(95),
			Volume: decimal.NewFromInt(1000),
		},
		{
			Date:   date(2024, time.January, 13),
			Open:   decimal.NewFromInt(105),
			Close:  decimal.NewFromInt(108),
			High:   decimal.NewFromInt(112),
			Low:    decimal.NewFromInt(101),
			Volume: decimal.NewFromInt(900),
		},
	}}

	var upserted []*models.Quote
	store.On("UpsertQuotes", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		upserted = args.Get(1).([]*models.Quote)
	}).Return(nil)

	o := testOrchestrator(store, creds, &mockTokens{}, testRegistry(client))

	result, err := o.BackfillToken(context.Background(), token, date(2024, time.January, 10))
	require.NoError(t, err)

	// One request spanning the whole gap
	assert.Equal(t, "BTCUSD", client.gotSymbol)
	assert.Equal(t, date(2024, time.January, 12), client.gotStart)
	assert.Equal(t, date(2024, time.January, 31), client.gotEnd)

	assert.False(t, result.NoOp)
	assert.Equal(t, 20, result.Missing)
	assert.Equal(t, 2, result.Stored)

	require.Len(t, upserted, 2)
	assert.Equal(t, token.ID, upserted[0].TokenID)
	assert.Equal(t, date(2024, time.January, 12), upserted[0].Date)
	assert.True(t, upserted[0].Close.Equal(decimal.NewFromInt(105)))
	assert.Equal(t, date(2024, time.January, 13), upserted[1].Date)
}

func TestBackfillTokenFetchFailurePersistsNothing(t *testing.T) {
	token := testToken()

	creds := &mockCreds{}
	creds.On("CredentialForToken", mock.Anything, token).Return(testCredential(), nil)

	store := &mockStore{}
	store.On("QuoteDates", mock.Anything, token.ID, mock.Anything, mock.Anything).Return(nil, nil)

	client := &fakeClient{err: fmt.Errorf("%w: connection refused", exchange.ErrConnectivity)}
	o := testOrchestrator(store, creds, &mockTokens{}, testRegistry(client))

	_, err := o.BackfillToken(context.Background(), token, date(2024, time.January, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.ErrConnectivity))
	store.AssertNotCalled(t, "UpsertQuotes", mock.Anything, mock.Anything)
}

func TestBackfillResolvesTokenFromAsset(t *testing.T) {
	token := testToken()

	tokens := &mockTokens{}
	tokens.On("GetTokenByID", mock.Anything, token.ID).Return(token, nil)

	creds := &mockCreds{}
	creds.On("CredentialForToken", mock.Anything, token).Return(nil, nil)

	o := testOrchestrator(&mockStore{}, creds, tokens, testRegistry(&fakeClient{}))

	asset := &models.Asset{ID: 5, TokenID: token.ID, PurchaseDate: date(2024, time.January, 10)}
	_, err := o.Backfill(context.Background(), asset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedExchange))
	tokens.AssertExpectations(t)
}

func TestBackfillUnknownToken(t *testing.T) {
	tokens := &mockTokens{}
	tokens.On("GetTokenByID", mock.Anything, int64(42)).Return(nil, nil)

	o := testOrchestrator(&mockStore{}, &mockCreds{}, tokens, testRegistry(&fakeClient{}))

	asset := &models.Asset{TokenID: 42, PurchaseDate: date(2024, time.January, 10)}
	_, err := o.Backfill(context.Background(), asset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
