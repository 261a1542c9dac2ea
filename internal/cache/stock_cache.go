package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const stockKeyPrefix = "stock:"

// DefaultTTL bounds how long any cached aggregate can outlive the row it was read from.
const DefaultTTL = 30 * time.Second

// StockCache keeps the latest aggregate quantity per SKU in Redis so read paths can
// avoid the ledger tables. It is written after commit and never consulted by the engines.
// Every key expires after ttl.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStockCache(client *redis.Client) *StockCache {
	return NewStockCacheTTL(client, DefaultTTL)
}

// NewStockCacheTTL is NewStockCache with an explicit expiry. A non-positive ttl uses DefaultTTL.
func NewStockCacheTTL(client *redis.Client, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StockCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PublishStock stores the committed aggregate for sku, replacing any cached value.
// Satisfies core.StockPublisher.
func (c *StockCache) PublishStock(ctx context.Context, sku string, aggregate decimal.Decimal) error {
	return c.client.Set(ctx, stockKeyPrefix+sku, aggregate.String(), c.ttl).Err()
}

// Warm fills a missing entry from a read-side lookup. It never replaces a value a
// writer published in the meantime, so a read that raced a commit cannot overwrite it.
func (c *StockCache) Warm(ctx context.Context, sku string, aggregate decimal.Decimal) (bool, error) {
	return c.client.SetNX(ctx, stockKeyPrefix+sku, aggregate.String(), c.ttl).Result()
}

// Stock returns the cached aggregate for sku. ok is false on a cache miss.
func (c *StockCache) Stock(ctx context.Context, sku string) (qty decimal.Decimal, ok bool, err error) {
	raw, err := c.client.Get(ctx, stockKeyPrefix+sku).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	qty, err = decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cached stock for %s: %w", sku, err)
	}
	return qty, true, nil
}

// Forget drops the cached value, e.g. after the item is deleted.
func (c *StockCache) Forget(ctx context.Context, sku string) error {
	return c.client.Del(ctx, stockKeyPrefix+sku).Err()
}
