// Package forecast produces multi-day price forecasts by walking the
// scorer forward one day at a time, feeding each prediction back into
// the next day's features.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/history"
	"agriprice-lab/internal/scorer"
)

// WorkingWindowDays is how much trailing real history seeds the
// autoregressive working series. Large enough for every lag and roll
// the feature layout uses.
const WorkingWindowDays = 14

// DefaultDays is the horizon used when a caller does not specify one.
const DefaultDays = 3

// ErrInvalidDays is returned for a non-positive forecast horizon.
var ErrInvalidDays = errors.New("forecast days must be positive")

// Forecaster orchestrates the day-by-day prediction loop.
type Forecaster struct {
	builder *feature.Builder
	scorer  scorer.Scorer
}

// New creates a forecaster over the given builder and scorer.
func New(builder *feature.Builder, s scorer.Scorer) *Forecaster {
	return &Forecaster{builder: builder, scorer: s}
}

// Forecast predicts the next days daily prices after the end of series.
//
// Each iteration builds features from the working series as of its
// current last entry, scores them, and appends the prediction as a
// synthetic observation — so day i+1's lag_1 is day i's prediction, and
// day i's features are fully determined by real history plus the
// engine's own predictions for days 1..i-1. Real future prices never
// leak in.
//
// Cancellation is honored between iterations only: once a score call
// has started it runs to completion or failure, so the working series
// is never left half-extended. Any scorer failure aborts the whole
// forecast; a partial forecast is worse than none because every later
// day would be built on the missing one.
func (f *Forecaster) Forecast(ctx context.Context, series domain.DailySeries, product *domain.Product, city string, days int) (*domain.Forecast, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDays, days)
	}
	if len(series) < history.MinDays {
		return nil, fmt.Errorf("%w: series has %d points, need at least %d",
			history.ErrInsufficientHistory, len(series), history.MinDays)
	}

	working := series.Tail(WorkingWindowDays)
	realWindow := working.Prices()
	lastDate := series.LastDate()

	points := make([]domain.ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("forecast cancelled before day %d: %w", i, err)
		}

		predictDate := lastDate.AddDate(0, 0, i)

		vec, err := f.builder.Build(working, predictDate, product.Name, city)
		if err != nil {
			return nil, fmt.Errorf("build features for day %d: %w", i, err)
		}

		price, err := f.scorer.Score(ctx, scorer.Input{
			Features:  vec,
			DayOffset: i,
			History:   realWindow,
		})
		if err != nil {
			return nil, fmt.Errorf("score day %d (%s): %w", i, predictDate.Format(domain.DateLayout), err)
		}
		if price < 0 {
			price = 0
		}

		// Full precision feeds the recurrence; rounding is for output only.
		working = append(working, domain.DailyPrice{Date: predictDate, AvgPrice: price})
		points = append(points, domain.ForecastPoint{Date: predictDate, Price: round2(price)})
	}

	return &domain.Forecast{
		ProductID:    product.ID,
		ProductName:  product.Name,
		City:         city,
		ModelVersion: f.scorer.Version(),
		Points:       points,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
