package storage

import (
	"context"
	"time"

	"agriprice-lab/internal/domain"
)

// ProductStore provides access to products storage.
type ProductStore interface {
	// Insert adds a new product. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.Product) error

	// GetByName retrieves a product by display name. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*domain.Product, error)

	// GetAll retrieves all products, ordered by name ASC.
	GetAll(ctx context.Context) ([]*domain.Product, error)
}

// MarketPriceStore provides access to market_prices storage.
type MarketPriceStore interface {
	// InsertBulk adds multiple raw observations. Same-date rows for one
	// (product, city) are expected: every market listing is its own row.
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByProductCity retrieves all observations for a (product, city)
	// pair with date >= since, ordered by date ASC. A zero since means
	// the full history.
	GetByProductCity(ctx context.Context, productID, city string, since time.Time) ([]*domain.PricePoint, error)

	// Cities retrieves the distinct city names present in storage,
	// ordered ASC.
	Cities(ctx context.Context) ([]string, error)
}

// PredictionStore provides access to price_predictions storage.
type PredictionStore interface {
	// Upsert writes forecast rows, replacing any existing row with the
	// same (product_id, city, predict_date, model_version).
	Upsert(ctx context.Context, rows []*domain.PricePrediction) error

	// GetByProductCity retrieves predictions for a (product, city)
	// pair, ordered by predict_date ASC.
	GetByProductCity(ctx context.Context, productID, city string) ([]*domain.PricePrediction, error)
}

// ForecastArchiveStore provides access to the append-only
// forecast_archive analytics table. Unlike PredictionStore, re-running
// a forecast adds rows here, so drift between runs and model versions
// stays observable.
type ForecastArchiveStore interface {
	// InsertBulk appends forecast rows.
	InsertBulk(ctx context.Context, rows []*domain.PricePrediction) error

	// GetByProductCity retrieves archived rows for a (product, city)
	// pair, ordered by (predict_date, created_at) ASC.
	GetByProductCity(ctx context.Context, productID, city string) ([]*domain.PricePrediction, error)

	// GetAll retrieves all archived rows, ordered by
	// (product_id, city, predict_date, created_at) ASC.
	GetAll(ctx context.Context) ([]*domain.PricePrediction, error)
}
