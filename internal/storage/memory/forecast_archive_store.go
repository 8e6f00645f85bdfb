package memory

import (
	"context"
	"sort"
	"sync"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// ForecastArchiveStore is an in-memory implementation of
// storage.ForecastArchiveStore. Append-only: re-running a forecast adds
// rows instead of replacing them.
type ForecastArchiveStore struct {
	mu   sync.RWMutex
	data []*domain.PricePrediction
}

// NewForecastArchiveStore creates a new in-memory forecast archive.
func NewForecastArchiveStore() *ForecastArchiveStore {
	return &ForecastArchiveStore{}
}

// Compile-time interface check.
var _ storage.ForecastArchiveStore = (*ForecastArchiveStore)(nil)

// InsertBulk appends forecast rows.
func (s *ForecastArchiveStore) InsertBulk(_ context.Context, rows []*domain.PricePrediction) error {
	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		if r == nil || r.ProductID == "" || r.City == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		rowCopy := *r
		rowCopy.PredictDate = domain.Day(r.PredictDate)
		s.data = append(s.data, &rowCopy)
	}
	return nil
}

// GetByProductCity retrieves archived rows for a (product, city) pair,
// ordered by (predict_date, created_at) ASC.
func (s *ForecastArchiveStore) GetByProductCity(_ context.Context, productID, city string) ([]*domain.PricePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePrediction
	for _, r := range s.data {
		if r.ProductID == productID && r.City == city {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}
	sortArchiveRows(result)
	return result, nil
}

// GetAll retrieves all archived rows, ordered by
// (product_id, city, predict_date, created_at) ASC.
func (s *ForecastArchiveStore) GetAll(_ context.Context) ([]*domain.PricePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PricePrediction, 0, len(s.data))
	for _, r := range s.data {
		rowCopy := *r
		result = append(result, &rowCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.City != b.City {
			return a.City < b.City
		}
		if !a.PredictDate.Equal(b.PredictDate) {
			return a.PredictDate.Before(b.PredictDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return result, nil
}

func sortArchiveRows(rows []*domain.PricePrediction) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].PredictDate.Equal(rows[j].PredictDate) {
			return rows[i].PredictDate.Before(rows[j].PredictDate)
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
