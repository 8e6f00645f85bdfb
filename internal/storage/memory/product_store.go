// Package memory provides in-memory storage implementations, used by
// tests and by the --use-memory server mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// ProductStore is an in-memory implementation of storage.ProductStore.
type ProductStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Product // keyed by product ID
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{data: make(map[string]*domain.Product)}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

// Insert adds a new product. Returns ErrDuplicateKey if the ID exists.
func (s *ProductStore) Insert(_ context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" || p.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}
	productCopy := *p
	s.data[p.ID] = &productCopy
	return nil
}

// GetByName retrieves a product by display name. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByName(_ context.Context, name string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.Name == name {
			productCopy := *p
			return &productCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAll retrieves all products, ordered by name ASC.
func (s *ProductStore) GetAll(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(s.data))
	for _, p := range s.data {
		productCopy := *p
		result = append(result, &productCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
