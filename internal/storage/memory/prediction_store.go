package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// PredictionStore is an in-memory implementation of
// storage.PredictionStore with upsert-by-natural-key semantics.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePrediction // keyed by (product_id, city, predict_date, model_version)
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{data: make(map[string]*domain.PricePrediction)}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// predictionKey generates the natural key for a prediction row.
func predictionKey(r *domain.PricePrediction) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		r.ProductID, r.City, r.PredictDate.Format(domain.DateLayout), r.ModelVersion)
}

// Upsert writes forecast rows, replacing existing rows with the same
// natural key.
func (s *PredictionStore) Upsert(_ context.Context, rows []*domain.PricePrediction) error {
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
		s.data[predictionKey(&rowCopy)] = &rowCopy
	}
	return nil
}

// GetByProductCity retrieves predictions for a (product, city) pair,
// ordered by predict_date ASC.
func (s *PredictionStore) GetByProductCity(_ context.Context, productID, city string) ([]*domain.PricePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePrediction
	for _, r := range s.data {
		if r.ProductID == productID && r.City == city {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PredictDate.Before(result[j].PredictDate)
	})
	return result, nil
}
