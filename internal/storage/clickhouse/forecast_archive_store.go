package clickhouse

import (
	"context"
	"fmt"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// ForecastArchiveStore implements storage.ForecastArchiveStore using
// ClickHouse. The archive is append-only: every forecast run adds rows,
// so accuracy evaluation can compare any past run against realized
// prices. The serving table in Postgres keeps only the current rows.
type ForecastArchiveStore struct {
	conn *Conn
}

// NewForecastArchiveStore creates a new ForecastArchiveStore.
func NewForecastArchiveStore(conn *Conn) *ForecastArchiveStore {
	return &ForecastArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ForecastArchiveStore = (*ForecastArchiveStore)(nil)

// InsertBulk appends forecast rows in a single batch.
func (s *ForecastArchiveStore) InsertBulk(ctx context.Context, rows []*domain.PricePrediction) error {
	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		if r == nil || r.ProductID == "" || r.City == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO forecast_archive (
			product_id, product_name, city, predict_date,
			predicted_price, model_version, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.ProductID, r.ProductName, r.City, domain.Day(r.PredictDate),
			r.PredictedPrice, r.ModelVersion, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByProductCity retrieves archived rows for a (product, city) pair,
// ordered by (predict_date, created_at) ASC.
func (s *ForecastArchiveStore) GetByProductCity(ctx context.Context, productID, city string) ([]*domain.PricePrediction, error) {
	query := `
		SELECT product_id, product_name, city, predict_date,
		       predicted_price, model_version, created_at
		FROM forecast_archive
		WHERE product_id = ? AND city = ?
		ORDER BY predict_date ASC, created_at ASC
	`

	rows, err := s.conn.Query(ctx, query, productID, city)
	if err != nil {
		return nil, fmt.Errorf("query archive by product/city: %w", err)
	}
	defer rows.Close()

	return scanArchiveRows(rows)
}

// GetAll retrieves all archived rows, ordered by
// (product_id, city, predict_date, created_at) ASC.
func (s *ForecastArchiveStore) GetAll(ctx context.Context) ([]*domain.PricePrediction, error) {
	query := `
		SELECT product_id, product_name, city, predict_date,
		       predicted_price, model_version, created_at
		FROM forecast_archive
		ORDER BY product_id ASC, city ASC, predict_date ASC, created_at ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all archive rows: %w", err)
	}
	defer rows.Close()

	return scanArchiveRows(rows)
}

// chRows abstracts driver.Rows for scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanArchiveRows scans multiple rows.
func scanArchiveRows(rows chRows) ([]*domain.PricePrediction, error) {
	var result []*domain.PricePrediction

	for rows.Next() {
		var r domain.PricePrediction
		var predictDate, createdAt time.Time

		err := rows.Scan(
			&r.ProductID, &r.ProductName, &r.City, &predictDate,
			&r.PredictedPrice, &r.ModelVersion, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}

		r.PredictDate = domain.Day(predictDate)
		r.CreatedAt = createdAt.UTC()
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}

	return result, nil
}
