package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agriprice-lab/internal/domain"
)

// RedisCache is a ForecastCache backed by Redis, for deployments where
// several replicas should share cached forecasts.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Compile-time interface check.
var _ ForecastCache = (*RedisCache)(nil)

// Get retrieves a cached forecast. Returns ErrCacheMiss when absent.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.Forecast, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var f domain.Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal cached forecast: %w", err)
	}
	return &f, nil
}

// Set stores a forecast under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, f *domain.Forecast, ttl time.Duration) error {
	if f == nil || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
