package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// retCodeBadAPIKey is reported by Bybit inside an HTTP 200 body
const retCodeBadAPIKey = "10004"

// BybitClient fetches spot-market klines from the Bybit REST API
type BybitClient struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
	logger    *logrus.Entry
	rateLimit time.Duration
	lastCall  time.Time
	now       func() time.Time
}

// NewBybitClient creates a Bybit client from an exchange credential
func NewBybitClient(cred *models.ExchangeCredential, cfg *config.ExchangeConfig, logger *logrus.Logger) *BybitClient {
	return &BybitClient{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:   strings.TrimRight(cred.BaseURL, "/"),
		apiKey:    cred.APIKey,
		apiSecret: cred.APISecret,
		logger:    logger.WithField("component", "bybit-client"),
		rateLimit: cfg.RateLimit,
		now:       time.Now,
	}
}

type bybitKline struct {
	Open     json.Number `json:"open"`
	Close    json.Number `json:"close"`
	High     json.Number `json:"high"`
	Low      json.Number `json:"low"`
	Volume   json.Number `json:"volume"`
	OpenTime int64       `json:"open_time"`
}

type bybitResponse struct {
	RetCode json.Number  `json:"ret_code"`
	RetMsg  string       `json:"ret_msg"`
	Result  []bybitKline `json:"result"`
}

// FetchQuoteRange fetches daily candles for [start, end] and normalizes them
// to canonical quotes with UTC calendar dates
func (b *BybitClient) FetchQuoteRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Candle, error) {
	b.enforceRateLimit()

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("from", strconv.FormatInt(start.Unix()*1000, 10))
	params.Set("to", strconv.FormatInt(end.Unix()*1000, 10))

	b.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"interval": interval,
		"from":     start.Format("2006-01-02"),
		"to":       end.Format("2006-01-02"),
	}).Debug("Fetching klines")

	resp, err := b.doSigned(ctx, "v2/public/kline/list", params)
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(resp.Result))
	for _, k := range resp.Result {
		candle, err := b.convertKline(k)
		if err != nil {
			b.logger.WithError(err).WithField("symbol", symbol).Warn("Skipping malformed kline")
			continue
		}
		candles = append(candles, candle)
	}

	b.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(candles),
	}).Debug("Fetched klines successfully")

	return candles, nil
}

// Ping checks connectivity and credentials against the server time endpoint
func (b *BybitClient) Ping(ctx context.Context) error {
	b.enforceRateLimit()

	_, err := b.doSigned(ctx, "v2/public/time", url.Values{})
	return err
}

// doSigned executes an authenticated GET request and classifies failures
func (b *BybitClient) doSigned(ctx context.Context, endpoint string, params url.Values) (*bybitResponse, error) {
	params.Set("api_key", b.apiKey)
	params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
	params.Set("sign", Sign(params, b.apiSecret))

	fullURL := fmt.Sprintf("%s/%s?%s", b.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status=%d, body=%s", ErrConnectivity, resp.StatusCode, string(body))
	}

	var parsed bybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Bybit reports bad credentials inside a 200 body
	if parsed.RetCode.String() == retCodeBadAPIKey {
		return nil, fmt.Errorf("%w: %s", ErrAuth, parsed.RetMsg)
	}

	return &parsed, nil
}

// convertKline converts a Bybit kline to the canonical candle shape
func (b *BybitClient) convertKline(k bybitKline) (Candle, error) {
	open, err := decimal.NewFromString(k.Open.String())
	if err != nil {
		return Candle{}, fmt.Errorf("failed to parse open: %w", err)
	}

	close_, err := decimal.NewFromString(k.Close.String())
	if err != nil {
		return Candle{}, fmt.Errorf("failed to parse close: %w", err)
	}

	high, err := decimal.NewFromString(k.High.String())
	if err != nil {
		return Candle{}, fmt.Errorf("failed to parse high: %w", err)
	}

	low, err := decimal.NewFromString(k.Low.String())
	if err != nil {
		return Candle{}, fmt.Errorf("failed to parse low: %w", err)
	}

	volume, err := decimal.NewFromString(k.Volume.String())
	if err != nil {
		return Candle{}, fmt.Errorf("failed to parse volume: %w", err)
	}

	// open_time is unix seconds; quotes are keyed by UTC calendar date
	opened := time.Unix(k.OpenTime, 0).UTC()

	return Candle{
		Date:   time.Date(opened.Year(), opened.Month(), opened.Day(), 0, 0, 0, 0, time.UTC),
		Open:   open,
		Close:  close_,
		High:   high,
		Low:    low,
		Volume: volume,
	}, nil
}

// enforceRateLimit ensures we don't exceed API rate limits
func (b *BybitClient) enforceRateLimit() {
	elapsed := time.Since(b.lastCall)
	if elapsed < b.rateLimit {
		time.Sleep(b.rateLimit - elapsed)
	}
	b.lastCall = time.Now()
}
