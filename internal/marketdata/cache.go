package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
)

// fundamentalsCacheTTL is longer than the series TTL since balance-sheet
// ratios change quarterly
const fundamentalsCacheTTL = 6 * time.Hour

// CachedProvider wraps a Provider with Redis caching. Historical windows are
// immutable once a trading day closes, so cache hits are safe; cache errors
// fall through to the underlying provider.
type CachedProvider struct {
	provider Provider
	redis    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCachedProvider creates a caching decorator around a provider
func NewCachedProvider(provider Provider, redisClient *redis.Client, cacheTTL time.Duration) *CachedProvider {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CachedProvider{
		provider: provider,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   config.NewFeedLogger("cache"),
	}
}

// PriceHistory fetches daily bars with caching
func (c *CachedProvider) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	cacheKey := fmt.Sprintf("marketdata:history:%s:%s:%s",
		ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var cached []Bar
	if c.lookup(ctx, cacheKey, &cached) {
		return cached, nil
	}

	bars, err := c.provider.PriceHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	c.store(cacheKey, bars, c.cacheTTL)
	return bars, nil
}

// IndexSeries fetches an index series with caching
func (c *CachedProvider) IndexSeries(ctx context.Context, symbol string, start, end time.Time) ([]Point, error) {
	cacheKey := fmt.Sprintf("marketdata:series:%s:%s:%s",
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var cached []Point
	if c.lookup(ctx, cacheKey, &cached) {
		return cached, nil
	}

	points, err := c.provider.IndexSeries(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	c.store(cacheKey, points, c.cacheTTL)
	return points, nil
}

// Fundamentals fetches balance-sheet ratios with caching
func (c *CachedProvider) Fundamentals(ctx context.Context, ticker string) (map[string]float64, error) {
	cacheKey := fmt.Sprintf("marketdata:fundamentals:%s", ticker)

	var cached map[string]float64
	if c.lookup(ctx, cacheKey, &cached) {
		return cached, nil
	}

	ratios, err := c.provider.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	c.store(cacheKey, ratios, fundamentalsCacheTTL)
	return ratios, nil
}

// lookup reads and unmarshals a cache entry, reporting whether it hit
func (c *CachedProvider) lookup(ctx context.Context, cacheKey string, dst interface{}) bool {
	cached, err := c.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(cached), dst); err == nil {
			c.logger.Debug().Str("cache_key", cacheKey).Msg("Cache hit")
			return true
		}
		c.logger.Warn().Str("cache_key", cacheKey).
			Msg("Failed to unmarshal cached entry, fetching fresh")
	} else if err != redis.Nil {
		// Log cache errors but continue with the provider call
		c.logger.Warn().Err(err).Msg("Redis error during cache lookup")
	}
	return false
}

// store writes a cache entry with a short timeout so a slow Redis delays a
// fetch by at most two seconds. Write errors are logged, not returned.
func (c *CachedProvider) store(cacheKey string, value interface{}, ttl time.Duration) {
	cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("cache_key", cacheKey).
			Msg("Failed to marshal entry for cache")
		return
	}

	if err := c.redis.Set(cacheCtx, cacheKey, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", cacheKey).
			Msg("Failed to cache entry")
	}
}

// InvalidateTicker removes all cached data for one ticker
func (c *CachedProvider) InvalidateTicker(ctx context.Context, ticker string) error {
	pattern := fmt.Sprintf("marketdata:*%s*", ticker)

	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", iter.Val()).
				Msg("Failed to delete cache key")
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache invalidation failed: %w", err)
	}

	c.logger.Info().Str("pattern", pattern).Msg("Cache invalidated")
	return nil
}

// Health checks Redis connectivity
func (c *CachedProvider) Health(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unhealthy: %w", err)
	}
	return nil
}
