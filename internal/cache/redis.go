package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache key formats. Board and analytics snapshots are keyed per company so
// tenants never share cached state.
const (
	BoardKeyFmt     = "fila:board:%s"
	ArchivedKeyFmt  = "fila:arquivados:%s"
	AnalyticsKeyFmt = "fila:analytics:%s:%s"
	HistoryKeyFmt   = "fila:historico:%s"
)

var client *redis.Client

// group collapses concurrent recomputations of the same query key into a
// single in-flight call. SLA views are recomputed from the event log on
// demand; without this, every polling board would trigger its own replay.
var group singleflight.Group

// Init initializes the Redis connection. The cache is optional - callers
// degrade to direct recomputation when Redis is unavailable.
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// Get returns a cached payload, or false when absent or Redis is down.
func Get(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a payload under key with the given TTL. Best effort.
func Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// Invalidate removes all cached snapshots for a company. Called after every
// queue mutation so SLA displays stay within their staleness budget.
func Invalidate(ctx context.Context, companyID string) {
	if client == nil {
		return
	}
	client.Del(ctx,
		fmt.Sprintf(BoardKeyFmt, companyID),
		fmt.Sprintf(ArchivedKeyFmt, companyID),
		fmt.Sprintf(HistoryKeyFmt, companyID),
	)
	// Analytics keys carry the filter in the key; sweep them by pattern.
	iter := client.Scan(ctx, 0, fmt.Sprintf(AnalyticsKeyFmt, companyID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// GetOrCompute returns the cached payload for key, or runs compute once
// (deduplicated across concurrent callers) and caches the result.
func GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error) {
	if data, ok := Get(ctx, key); ok {
		return data, nil
	}

	v, err, _ := group.Do(key, func() (interface{}, error) {
		// Re-check under the flight lock: a concurrent caller may have
		// populated the cache while this one waited.
		if data, ok := Get(ctx, key); ok {
			return data, nil
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		Set(ctx, key, data, ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
