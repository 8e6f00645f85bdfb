// Package fixtures seeds stores with demo data for in-memory runs.
package fixtures

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/storage"
)

// HistoryDays is how many trailing days of observations each seeded
// (product, city) pair gets. Comfortably above the forecast minimum.
const HistoryDays = 30

// Cities seeded with demo observations.
var Cities = []string{"Nanjing", "Suzhou", "Wuxi"}

// basePrices per product, in yuan/kg. Prices wander around these.
var basePrices = map[string]float64{
	"Apples":    8.5,
	"Beef":      78.0,
	"Cabbage":   2.1,
	"Carrots":   3.2,
	"Chicken":   22.0,
	"Corn":      3.8,
	"Cucumbers": 4.5,
	"Pears":     7.0,
	"Pork":      28.0,
	"Potatoes":  3.5,
	"Rice":      6.2,
	"Tomatoes":  5.8,
	"Wheat":     3.1,
}

// Load populates the product catalog and HistoryDays of daily
// observations per (product, city) pair. Generation is deterministic
// for a given seed.
func Load(ctx context.Context, products storage.ProductStore, prices storage.MarketPriceStore, seed int64) error {
	spec := feature.DefaultSpec()
	rng := rand.New(rand.NewSource(seed))

	var points []*domain.PricePoint
	start := domain.Day(time.Now()).AddDate(0, 0, -HistoryDays)

	for _, name := range spec.ProductCategories {
		product := &domain.Product{
			ID:       productID(name),
			Name:     name,
			Category: categoryFor(name),
		}
		if err := products.Insert(ctx, product); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}

		base, ok := basePrices[name]
		if !ok {
			base = 10.0
		}

		for _, city := range Cities {
			price := base
			for day := 0; day < HistoryDays; day++ {
				// Random walk with a mild weekly cycle.
				cycle := 0.02 * base * math.Sin(2*math.Pi*float64(day)/7)
				price += (rng.Float64() - 0.5) * 0.04 * base
				if price < 0.2*base {
					price = 0.2 * base
				}

				// Two listings per day so daily averaging has work to do.
				date := start.AddDate(0, 0, day)
				for listing := 0; listing < 2; listing++ {
					jitter := (rng.Float64() - 0.5) * 0.02 * base
					points = append(points, &domain.PricePoint{
						ProductID: product.ID,
						City:      city,
						Date:      date,
						Price:     round2(price + cycle + jitter),
					})
				}
			}
		}
	}

	return prices.InsertBulk(ctx, points)
}

func productID(name string) string {
	return "prod_" + strings.ToLower(name)
}

func categoryFor(name string) string {
	switch name {
	case "Beef", "Chicken", "Pork":
		return "meat"
	case "Apples", "Pears":
		return "fruit"
	case "Corn", "Rice", "Wheat":
		return "grain"
	default:
		return "vegetable"
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
