package postgres

import (
	"context"
	"fmt"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// MarketPriceStore implements storage.MarketPriceStore using PostgreSQL.
type MarketPriceStore struct {
	pool *Pool
}

// NewMarketPriceStore creates a new MarketPriceStore.
func NewMarketPriceStore(pool *Pool) *MarketPriceStore {
	return &MarketPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketPriceStore = (*MarketPriceStore)(nil)

// InsertBulk adds multiple raw observations in one transaction.
func (s *MarketPriceStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.ProductID == "" || p.City == "" || p.Price <= 0 {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO market_prices (product_id, city, date, price)
		VALUES ($1, $2, $3, $4)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query, p.ProductID, p.City, domain.Day(p.Date), p.Price)
		if err != nil {
			return fmt.Errorf("insert market price in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByProductCity retrieves observations for a (product, city) pair
// with date >= since, ordered by date ASC.
func (s *MarketPriceStore) GetByProductCity(ctx context.Context, productID, city string, since time.Time) ([]*domain.PricePoint, error) {
	query := `
		SELECT product_id, city, date, price
		FROM market_prices
		WHERE product_id = $1 AND city = $2 AND ($3::date IS NULL OR date >= $3)
		ORDER BY date ASC, id ASC
	`

	var sinceArg any
	if !since.IsZero() {
		sinceArg = domain.Day(since)
	}

	rows, err := s.pool.Query(ctx, query, productID, city, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("get market prices by product/city: %w", err)
	}
	defer rows.Close()

	var points []*domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		var date time.Time
		if err := rows.Scan(&p.ProductID, &p.City, &date, &p.Price); err != nil {
			return nil, fmt.Errorf("scan market price row: %w", err)
		}
		p.Date = domain.Day(date)
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market price rows: %w", err)
	}
	return points, nil
}

// Cities retrieves the distinct city names present in storage, ordered ASC.
func (s *MarketPriceStore) Cities(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT city
		FROM market_prices
		ORDER BY city ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan city row: %w", err)
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate city rows: %w", err)
	}
	return cities, nil
}
