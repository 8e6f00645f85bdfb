package domain

import "time"

// ForecastPoint is one predicted day. Price is clamped to be
// non-negative and rounded to 2 decimals.
type ForecastPoint struct {
	Date  time.Time
	Price float64
}

// Forecast is an ordered multi-day price forecast for one
// (product, city) pair. Points are ascending by date, starting the day
// after the last known history date.
type Forecast struct {
	ProductID    string
	ProductName  string
	City         string
	ModelVersion string
	Points       []ForecastPoint
	CreatedAt    time.Time
}

// PricePrediction represents a persisted forecast row.
// Corresponds to the price_predictions table in PostgreSQL and the
// forecast_archive table in ClickHouse.
type PricePrediction struct {
	ProductID      string
	ProductName    string
	City           string
	PredictDate    time.Time
	PredictedPrice float64
	ModelVersion   string
	CreatedAt      time.Time
}

// Rows flattens a forecast into one PricePrediction per point.
func (f *Forecast) Rows() []*PricePrediction {
	rows := make([]*PricePrediction, len(f.Points))
	for i, p := range f.Points {
		rows[i] = &PricePrediction{
			ProductID:      f.ProductID,
			ProductName:    f.ProductName,
			City:           f.City,
			PredictDate:    p.Date,
			PredictedPrice: p.Price,
			ModelVersion:   f.ModelVersion,
			CreatedAt:      f.CreatedAt,
		}
	}
	return rows
}
