package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/internal/evolution"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// CachedQuoteSource is a read-through decorator over a quote source: latest
// quotes are served from Redis when present, everything else passes straight
// to the store. Cache failures degrade to the store, never to an error.
type CachedQuoteSource struct {
	store  evolution.QuoteSource
	redis  *RedisClient
	logger *logrus.Entry
}

// NewCachedQuoteSource wraps a quote source with the Redis latest-quote cache
func NewCachedQuoteSource(store evolution.QuoteSource, redis *RedisClient, logger *logrus.Logger) *CachedQuoteSource {
	return &CachedQuoteSource{
		store:  store,
		redis:  redis,
		logger: logger.WithField("component", "quote-cache"),
	}
}

// LatestQuote serves the most recent quote from cache when possible
func (cs *CachedQuoteSource) LatestQuote(ctx context.Context, tokenID int64) (*models.Quote, error) {
	cached, err := cs.redis.GetLatestQuote(ctx, tokenID)
	if err != nil {
		cs.logger.WithError(err).WithField("token_id", tokenID).Warn("Cache read failed, falling back to store")
	} else if cached != nil {
		return cached, nil
	}

	quote, err := cs.store.LatestQuote(ctx, tokenID)
	if err != nil || quote == nil {
		return quote, err
	}

	if err := cs.redis.SetLatestQuote(ctx, quote); err != nil {
		cs.logger.WithError(err).WithField("token_id", tokenID).Warn("Failed to populate quote cache")
	}

	return quote, nil
}

// QuoteOnDate passes through to the store
func (cs *CachedQuoteSource) QuoteOnDate(ctx context.Context, tokenID int64, date time.Time) (*models.Quote, error) {
	return cs.store.QuoteOnDate(ctx, tokenID, date)
}

// QuotesFrom passes through to the store
func (cs *CachedQuoteSource) QuotesFrom(ctx context.Context, tokenID int64, from time.Time) ([]*models.Quote, error) {
	return cs.store.QuotesFrom(ctx, tokenID, from)
}

// QuotesInRange passes through to the store
func (cs *CachedQuoteSource) QuotesInRange(ctx context.Context, tokenID int64, start, end time.Time) ([]*models.Quote, error) {
	return cs.store.QuotesInRange(ctx, tokenID, start, end)
}
