package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func getRedisClient(t *testing.T) *redis.Client {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set — skipping Redis tests")
	}

	client, err := Connect(context.Background(), url)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestPublishStock_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	c := NewStockCache(client)
	client.Del(ctx, "stock:TEST-CACHE-1")

	if err := c.PublishStock(ctx, "TEST-CACHE-1", decimal.RequireFromString("12.5")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	qty, ok, err := c.Stock(ctx, "TEST-CACHE-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !qty.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected 12.5, got %s", qty)
	}

	raw, _ := client.Get(ctx, "stock:TEST-CACHE-1").Result()
	if raw != "12.5" {
		t.Errorf("expected raw value 12.5, got %q", raw)
	}
}

func TestStock_Miss(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	c := NewStockCache(client)
	client.Del(ctx, "stock:TEST-CACHE-MISSING")

	_, ok, err := c.Stock(ctx, "TEST-CACHE-MISSING")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestForget(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	c := NewStockCache(client)
	c.PublishStock(ctx, "TEST-CACHE-2", decimal.NewFromInt(3))

	if err := c.Forget(ctx, "TEST-CACHE-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := c.Stock(ctx, "TEST-CACHE-2"); ok {
		t.Error("expected cache miss after Forget")
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-url://"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestWarm_DoesNotOverwritePublished(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	c := NewStockCache(client)
	client.Del(ctx, "stock:TEST-CACHE-3")

	// A writer publishes the committed value while a reader is still warming an older one.
	if err := c.PublishStock(ctx, "TEST-CACHE-3", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := c.Warm(ctx, "TEST-CACHE-3", decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored {
		t.Error("expected warm to be skipped when a value is present")
	}
	qty, _, _ := c.Stock(ctx, "TEST-CACHE-3")
	if !qty.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected published 30 to survive, got %s", qty)
	}

	client.Del(ctx, "stock:TEST-CACHE-3")
	if stored, err := c.Warm(ctx, "TEST-CACHE-3", decimal.NewFromInt(7)); err != nil || !stored {
		t.Errorf("expected warm on a miss to store, got stored=%v err=%v", stored, err)
	}
}

func TestKeysExpire(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	c := NewStockCacheTTL(client, 5*time.Second)
	client.Del(ctx, "stock:TEST-CACHE-4", "stock:TEST-CACHE-5")

	c.PublishStock(ctx, "TEST-CACHE-4", decimal.NewFromInt(1))
	c.Warm(ctx, "TEST-CACHE-5", decimal.NewFromInt(2))

	for _, key := range []string{"stock:TEST-CACHE-4", "stock:TEST-CACHE-5"} {
		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ttl <= 0 || ttl > 5*time.Second {
			t.Errorf("expected %s to expire within 5s, got ttl %s", key, ttl)
		}
	}
}

func TestNewStockCacheTTL_DefaultsNonPositive(t *testing.T) {
	if c := NewStockCacheTTL(nil, 0); c.ttl != DefaultTTL {
		t.Errorf("expected default ttl %s, got %s", DefaultTTL, c.ttl)
	}
}
