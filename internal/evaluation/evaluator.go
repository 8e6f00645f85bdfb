// Package evaluation measures forecast accuracy by joining archived
// predictions against the daily averages that were later observed.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/history"
	"agriprice-lab/internal/storage"
)

// Report holds accuracy metrics for one (product, city, model version)
// group of archived predictions.
type Report struct {
	ProductID    string
	ProductName  string
	City         string
	ModelVersion string

	// Predictions is the total number of archived rows in the group.
	Predictions int

	// Matched is how many of them have a realized daily average to
	// compare against.
	Matched int

	// MAE is the mean absolute error over matched rows.
	MAE float64

	// MAPE is the mean absolute percentage error over matched rows with
	// a non-zero realized price.
	MAPE float64
}

// Coverage is the share of archived predictions with a realized value.
func (r *Report) Coverage() float64 {
	if r.Predictions == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Predictions)
}

// Evaluator computes accuracy reports from the forecast archive.
type Evaluator struct {
	archive storage.ForecastArchiveStore
	prices  storage.MarketPriceStore
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(archive storage.ForecastArchiveStore, prices storage.MarketPriceStore) *Evaluator {
	return &Evaluator{archive: archive, prices: prices}
}

// Evaluate builds one report per (product, city, model version) group
// present in the archive, sorted by product, city, model version.
// Predictions for dates with no realized observations count against
// coverage but not against the error metrics.
func (e *Evaluator) Evaluate(ctx context.Context) ([]*Report, error) {
	rows, err := e.archive.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecast archive: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	type groupKey struct {
		productID    string
		city         string
		modelVersion string
	}
	groups := make(map[groupKey][]*domain.PricePrediction)
	for _, r := range rows {
		k := groupKey{r.ProductID, r.City, r.ModelVersion}
		groups[k] = append(groups[k], r)
	}

	// Realized daily averages are shared across model versions for the
	// same (product, city) pair, so load each pair once.
	type pairKey struct {
		productID string
		city      string
	}
	realized := make(map[pairKey]map[time.Time]float64)

	var reports []*Report
	for k, group := range groups {
		pk := pairKey{k.productID, k.city}
		byDate, ok := realized[pk]
		if !ok {
			byDate, err = e.realizedByDate(ctx, pk.productID, pk.city)
			if err != nil {
				return nil, err
			}
			realized[pk] = byDate
		}

		report := &Report{
			ProductID:    k.productID,
			ProductName:  group[0].ProductName,
			City:         k.city,
			ModelVersion: k.modelVersion,
			Predictions:  len(group),
		}

		var absErrSum, pctErrSum float64
		var pctCount int
		for _, p := range group {
			actual, ok := byDate[domain.Day(p.PredictDate)]
			if !ok {
				continue
			}
			report.Matched++
			absErr := math.Abs(p.PredictedPrice - actual)
			absErrSum += absErr
			if actual != 0 {
				pctErrSum += absErr / actual * 100
				pctCount++
			}
		}
		if report.Matched > 0 {
			report.MAE = absErrSum / float64(report.Matched)
		}
		if pctCount > 0 {
			report.MAPE = pctErrSum / float64(pctCount)
		}

		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.ModelVersion < b.ModelVersion
	})
	return reports, nil
}

// realizedByDate loads all observations for a pair and collapses them to
// one average per date.
func (e *Evaluator) realizedByDate(ctx context.Context, productID, city string) (map[time.Time]float64, error) {
	points, err := e.prices.GetByProductCity(ctx, productID, city, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load realized prices for %s in %s: %w", productID, city, err)
	}

	series := history.BuildDailySeries(points)
	byDate := make(map[time.Time]float64, len(series))
	for _, d := range series {
		byDate[d.Date] = d.AvgPrice
	}
	return byDate, nil
}
