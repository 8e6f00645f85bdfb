// Package history loads and normalizes raw market price observations
// into the daily-averaged series the forecast engine consumes.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
)

// MinDays is the minimum number of distinct observation dates required
// before feature building is allowed. lag_7, the 7-day rolls and the
// 10-day roll need 10-14 trailing points to mean anything.
const MinDays = 14

// ErrInsufficientHistory is returned when fewer than MinDays distinct
// dates exist for a (product, city) pair.
var ErrInsufficientHistory = errors.New("insufficient price history")

// Reader resolves a (product, city) pair to its DailySeries.
type Reader struct {
	products storage.ProductStore
	prices   storage.MarketPriceStore
}

// NewReader creates a price history reader.
func NewReader(products storage.ProductStore, prices storage.MarketPriceStore) *Reader {
	return &Reader{products: products, prices: prices}
}

// DailySeries loads the daily-averaged series for a product (by display
// name) and city, restricted to the trailing lookbackDays when > 0.
// Same-date observations are averaged before anything downstream sees
// them; raw per-listing rows must never reach the lag/rolling math.
//
// Returns storage.ErrNotFound when the product cannot be resolved and
// ErrInsufficientHistory when fewer than MinDays distinct dates exist.
func (r *Reader) DailySeries(ctx context.Context, productName, city string, lookbackDays int) (domain.DailySeries, *domain.Product, error) {
	product, err := r.products.GetByName(ctx, productName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("product %q: %w", productName, storage.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("resolve product %q: %w", productName, err)
	}

	var since time.Time
	if lookbackDays > 0 {
		since = domain.Day(time.Now()).AddDate(0, 0, -lookbackDays)
	}

	points, err := r.prices.GetByProductCity(ctx, product.ID, city, since)
	if err != nil {
		return nil, nil, fmt.Errorf("load market prices for %q in %q: %w", productName, city, err)
	}

	series := BuildDailySeries(points)
	if len(series) < MinDays {
		return nil, nil, fmt.Errorf("%w: %q in %q has %d distinct dates, need at least %d",
			ErrInsufficientHistory, productName, city, len(series), MinDays)
	}

	return series, product, nil
}

// BuildDailySeries groups raw observations by calendar date and
// averages each group. The result has one entry per distinct date,
// sorted ascending. Dates with no observations are absent — gaps are
// never filled with interpolated days.
func BuildDailySeries(points []*domain.PricePoint) domain.DailySeries {
	if len(points) == 0 {
		return nil
	}

	type bucket struct {
		sum   float64
		count int
	}
	byDate := make(map[time.Time]*bucket)
	for _, p := range points {
		day := domain.Day(p.Date)
		b, ok := byDate[day]
		if !ok {
			b = &bucket{}
			byDate[day] = b
		}
		b.sum += p.Price
		b.count++
	}

	series := make(domain.DailySeries, 0, len(byDate))
	for day, b := range byDate {
		series = append(series, domain.DailyPrice{
			Date:     day,
			AvgPrice: b.sum / float64(b.count),
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series
}
