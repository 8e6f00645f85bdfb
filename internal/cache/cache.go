// Package cache provides a TTL cache for completed forecasts, keyed by
// (product, city, days, model version). A hit skips the whole
// history -> features -> scorer path.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agriprice-lab/internal/domain"
)

// ErrCacheMiss indicates the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ForecastCache stores completed forecasts for a bounded time.
type ForecastCache interface {
	// Get retrieves a cached forecast. Returns ErrCacheMiss when absent.
	Get(ctx context.Context, key string) (*domain.Forecast, error)

	// Set stores a forecast under key for ttl.
	Set(ctx context.Context, key string, f *domain.Forecast, ttl time.Duration) error

	// Close releases cache resources.
	Close() error
}

// Key builds the cache key for a forecast request.
func Key(productName, city string, days int, modelVersion string) string {
	return fmt.Sprintf("forecast:%s:%s:%d:%s", productName, city, days, modelVersion)
}
