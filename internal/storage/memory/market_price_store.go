package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// MarketPriceStore is an in-memory implementation of
// storage.MarketPriceStore. Observations are append-only; same-date
// rows are expected and kept separate.
type MarketPriceStore struct {
	mu   sync.RWMutex
	data []*domain.PricePoint
}

// NewMarketPriceStore creates a new in-memory market price store.
func NewMarketPriceStore() *MarketPriceStore {
	return &MarketPriceStore{}
}

// Compile-time interface check.
var _ storage.MarketPriceStore = (*MarketPriceStore)(nil)

// InsertBulk adds multiple raw observations.
func (s *MarketPriceStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.ProductID == "" || p.City == "" || p.Price <= 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		pointCopy := *p
		pointCopy.Date = domain.Day(p.Date)
		s.data = append(s.data, &pointCopy)
	}
	return nil
}

// GetByProductCity retrieves observations for a (product, city) pair
// with date >= since, ordered by date ASC.
func (s *MarketPriceStore) GetByProductCity(_ context.Context, productID, city string, since time.Time) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if p.ProductID != productID || p.City != city {
			continue
		}
		if !since.IsZero() && p.Date.Before(since) {
			continue
		}
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// Cities retrieves the distinct city names, ordered ASC.
func (s *MarketPriceStore) Cities(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.data {
		seen[p.City] = struct{}{}
	}

	result := make([]string, 0, len(seen))
	for city := range seen {
		result = append(result, city)
	}
	sort.Strings(result)
	return result, nil
}
