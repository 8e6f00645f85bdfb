package postgres

import (
	"context"
	"fmt"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
// Writes upsert on the natural key (product_id, city, predict_date,
// model_version): the serving table holds one current prediction per
// day, while the ClickHouse archive keeps the full run history.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Upsert writes forecast rows, replacing existing rows with the same
// natural key.
func (s *PredictionStore) Upsert(ctx context.Context, rows []*domain.PricePrediction) error {
	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		if r == nil || r.ProductID == "" || r.City == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO price_predictions (
			product_id, product_name, city, predict_date,
			predicted_price, model_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, city, predict_date, model_version)
		DO UPDATE SET
			product_name = EXCLUDED.product_name,
			predicted_price = EXCLUDED.predicted_price,
			created_at = EXCLUDED.created_at
	`

	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			r.ProductID, r.ProductName, r.City, domain.Day(r.PredictDate),
			r.PredictedPrice, r.ModelVersion, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert prediction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByProductCity retrieves predictions for a (product, city) pair,
// ordered by predict_date ASC.
func (s *PredictionStore) GetByProductCity(ctx context.Context, productID, city string) ([]*domain.PricePrediction, error) {
	query := `
		SELECT product_id, product_name, city, predict_date,
		       predicted_price, model_version, created_at
		FROM price_predictions
		WHERE product_id = $1 AND city = $2
		ORDER BY predict_date ASC, model_version ASC
	`

	rows, err := s.pool.Query(ctx, query, productID, city)
	if err != nil {
		return nil, fmt.Errorf("get predictions by product/city: %w", err)
	}
	defer rows.Close()

	var result []*domain.PricePrediction
	for rows.Next() {
		var r domain.PricePrediction
		var predictDate time.Time
		err := rows.Scan(
			&r.ProductID, &r.ProductName, &r.City, &predictDate,
			&r.PredictedPrice, &r.ModelVersion, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		r.PredictDate = domain.Day(predictDate)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}
	return result, nil
}
