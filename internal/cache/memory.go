package cache

import (
	"context"
	"sync"
	"time"

	"agriprice-lab/internal/domain"
)

// MemoryCache is an in-process ForecastCache with lazy expiry: entries
// are dropped on read after their deadline passes.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	forecast  *domain.Forecast
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory forecast cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryEntry)}
}

// Compile-time interface check.
var _ ForecastCache = (*MemoryCache)(nil)

// Get retrieves a cached forecast. Returns ErrCacheMiss when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.Forecast, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.data[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	forecastCopy := *entry.forecast
	forecastCopy.Points = append([]domain.ForecastPoint(nil), entry.forecast.Points...)
	return &forecastCopy, nil
}

// Set stores a forecast under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, f *domain.Forecast, ttl time.Duration) error {
	if f == nil || ttl <= 0 {
		return nil
	}

	forecastCopy := *f
	forecastCopy.Points = append([]domain.ForecastPoint(nil), f.Points...)

	c.mu.Lock()
	c.data[key] = memoryEntry{forecast: &forecastCopy, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error {
	return nil
}
