package postgres

import (
	"context"
	"fmt"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// ProductStore implements storage.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *Pool
}

// NewProductStore creates a new ProductStore.
func NewProductStore(pool *Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

// Insert adds a new product. Returns ErrDuplicateKey if the ID exists.
func (s *ProductStore) Insert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, category)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, p.ID, p.Name, p.Category)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByName retrieves a product by display name. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `
		SELECT id, name, category
		FROM products
		WHERE name = $1
	`

	var p domain.Product
	err := s.pool.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name, &p.Category)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get product by name: %w", err)
	}
	return &p, nil
}

// GetAll retrieves all products, ordered by name ASC.
func (s *ProductStore) GetAll(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, category
		FROM products
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}
