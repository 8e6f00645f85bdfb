// Package feature derives model input vectors from daily price series.
//
// The numeric block layout is fixed and position-sensitive:
//
//	[lag_1, lag_3, lag_7, roll7_mean, roll7_std, roll10_mean, dow, dom, month]
//
// followed by a product one-hot block and a city one-hot block whose
// widths come from the feature spec catalogs. Scorers consume vectors
// by position, so the order above must never change.
package feature

import (
	"errors"
	"fmt"
	"math"
	"time"

	"agriprice-lab/internal/domain"
)

// ErrSchemaMismatch is returned when a feature vector's width does not
// match what the spec (and therefore the model) expects. It indicates
// catalog/model version drift, not bad user input.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// NumericCount is the width of the numeric block.
const NumericCount = 9

// Numeric block slot indexes.
const (
	IdxLag1 = iota
	IdxLag3
	IdxLag7
	IdxRoll7Mean
	IdxRoll7Std
	IdxRoll10Mean
	IdxDayOfWeek
	IdxDayOfMonth
	IdxMonth
)

// Vector is a model input vector.
type Vector []float64

// Builder derives feature vectors against a fixed spec.
type Builder struct {
	spec *Spec
}

// NewBuilder creates a builder for the given spec.
// The spec must already be validated.
func NewBuilder(spec *Spec) (*Builder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Builder{spec: spec}, nil
}

// Dim returns the total vector width this builder produces.
func (b *Builder) Dim() int {
	return b.spec.Dim()
}

// Spec returns the spec the builder was created with.
func (b *Builder) Spec() *Spec {
	return b.spec
}

// Build computes the feature vector for predicting predictDate from the
// given series. The series is the working window: real history possibly
// extended with synthetic predicted points, sorted ascending. Lags and
// rolling stats are taken from the trailing end of the series; calendar
// fields come from predictDate itself, the day being predicted.
//
// Lags are anchored to predictDate: lag_k is the series value k days
// back from it, so lag_1 is the last series entry. A series too short
// for a lag yields 0 for that slot (lossy, but below the 14-day history
// minimum the engine refuses to forecast at all).
//
// Product/city identifiers absent from the catalogs yield an all-zero
// one-hot block rather than an error, so an unseen category degrades
// the forecast instead of failing it.
func (b *Builder) Build(series domain.DailySeries, predictDate time.Time, product, city string) (Vector, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrSchemaMismatch)
	}

	prices := series.Prices()
	vec := make(Vector, 0, b.Dim())

	vec = append(vec,
		lag(prices, 1),
		lag(prices, 3),
		lag(prices, 7),
	)

	roll7 := tail(prices, 7)
	roll10 := tail(prices, 10)
	roll7Mean := mean(roll7)
	vec = append(vec,
		roll7Mean,
		stdDev(roll7, roll7Mean),
		mean(roll10),
	)

	vec = append(vec,
		float64(predictDate.Weekday()),       // Sunday=0
		float64(predictDate.Day()),           // 1-31
		float64(int(predictDate.Month())),    // 1-12
	)

	vec = append(vec, oneHot(product, b.spec.ProductCategories)...)
	vec = append(vec, oneHot(city, b.spec.CityCategories)...)

	if len(vec) != b.Dim() {
		return nil, fmt.Errorf("%w: built %d dimensions, spec expects %d",
			ErrSchemaMismatch, len(vec), b.Dim())
	}
	return vec, nil
}

// lag returns the value k days before the predicted date: the k-th
// entry from the end of the series. Missing entries yield 0.
func lag(prices []float64, k int) float64 {
	if k > len(prices) {
		return 0
	}
	return prices[len(prices)-k]
}

// tail returns the trailing n values (all of them if fewer exist).
func tail(prices []float64, n int) []float64 {
	if n > len(prices) {
		n = len(prices)
	}
	return prices[len(prices)-n:]
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev returns the population standard deviation, 0 when fewer than
// 2 points exist.
func stdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// oneHot encodes value against a fixed catalog: exactly one 1 at the
// matching position, all zeros when absent.
func oneHot(value string, categories []string) []float64 {
	out := make([]float64, len(categories))
	for i, c := range categories {
		if c == value {
			out[i] = 1
			break
		}
	}
	return out
}
