package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// RedisClient handles Redis caching operations
type RedisClient struct {
	client *redis.Client
	logger *logrus.Entry
	cfg    *config.RedisConfig
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxRetries:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		logger: logger.WithField("component", "redis"),
		cfg:    cfg,
		ttl:    cfg.QuoteTTL,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// Health checks Redis health
func (rc *RedisClient) Health(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SetLatestQuote caches the most recent quote for a token
func (rc *RedisClient) SetLatestQuote(ctx context.Context, quote *models.Quote) error {
	key := latestQuoteKey(quote.TokenID)

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := rc.client.Set(ctx, key, data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote: %w", err)
	}

	return nil
}

// GetLatestQuote returns the cached latest quote for a token, or (nil, nil)
// on a cache miss
func (rc *RedisClient) GetLatestQuote(ctx context.Context, tokenID int64) (*models.Quote, error) {
	data, err := rc.client.Get(ctx, latestQuoteKey(tokenID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}

	quote := &models.Quote{}
	if err := json.Unmarshal(data, quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}

	return quote, nil
}

// InvalidateLatestQuote drops the cached latest quote for a token
func (rc *RedisClient) InvalidateLatestQuote(ctx context.Context, tokenID int64) error {
	return rc.client.Del(ctx, latestQuoteKey(tokenID)).Err()
}

func latestQuoteKey(tokenID int64) string {
	return fmt.Sprintf("quote:latest:%d", tokenID)
}
