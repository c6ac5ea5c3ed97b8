package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inventory-ai-agent/internal/config"
	"inventory-ai-agent/internal/models"
	"inventory-ai-agent/internal/pkg/logger"
)

// TrendCache is a read-through cache for trend bundles keyed by search query.
// It is strictly an optimization: every failure degrades to a live fetch and
// the agent stays stateless without it.
type TrendCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewTrendCache(cfg config.RedisConfig, log *logger.Logger) (*TrendCache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = cfg.PoolSize
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout
	opt.DialTimeout = cfg.DialTimeout

	cache := &TrendCache{
		client: redis.NewClient(opt),
		ttl:    cfg.TrendCacheTTL,
		logger: log,
	}

	if err := cache.testConnection(); err != nil {
		return nil, fmt.Errorf("connection to Redis failed: %w", err)
	}

	log.Info("Trend cache initialized successfully",
		"ttl", cfg.TrendCacheTTL.String(),
		"pool_size", cfg.PoolSize)

	return cache, nil
}

func (cache *TrendCache) testConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return cache.client.Ping(ctx).Err()
}

func cacheKey(searchQuery string) string {
	return "trends:" + searchQuery
}

// Get returns the cached bundle for the query, or nil on miss or any Redis
// failure.
func (cache *TrendCache) Get(ctx context.Context, searchQuery string) *models.TrendBundle {
	if cache == nil {
		return nil
	}

	payload, err := cache.client.Get(ctx, cacheKey(searchQuery)).Result()
	if err != nil {
		if err != redis.Nil {
			cache.logger.WithError(err).Warn("Trend cache read failed, falling back to live fetch")
		}
		return nil
	}

	var bundle models.TrendBundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		cache.logger.WithError(err).Warn("Trend cache entry corrupted, ignoring")
		return nil
	}

	return &bundle
}

// Put stores the bundle with the configured TTL. Bundles that errored are not
// cached so the next run retries the sources.
func (cache *TrendCache) Put(ctx context.Context, searchQuery string, bundle *models.TrendBundle) {
	if cache == nil || bundle == nil || bundle.Error != "" {
		return
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		cache.logger.WithError(err).Warn("Failed to marshal trend bundle for caching")
		return
	}

	if err := cache.client.Set(ctx, cacheKey(searchQuery), payload, cache.ttl).Err(); err != nil {
		cache.logger.WithError(err).Warn("Trend cache write failed")
	}
}

func (cache *TrendCache) HealthCheck(ctx context.Context) error {
	if cache == nil {
		return nil
	}
	return cache.client.Ping(ctx).Err()
}

func (cache *TrendCache) Close() error {
	if cache == nil {
		return nil
	}

	cache.logger.Info("Closing trend cache")
	return cache.client.Close()
}
