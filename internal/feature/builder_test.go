package feature

import (
	"errors"
	"math"
	"testing"
	"time"

	"agriprice-lab/internal/domain"
)

// makeSeries builds a daily series ending the day before March 10 2025,
// one entry per day, from the given prices.
func makeSeries(prices ...float64) domain.DailySeries {
	end := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(len(prices) - 1))

	series := make(domain.DailySeries, len(prices))
	for i, p := range prices {
		series[i] = domain.DailyPrice{Date: start.AddDate(0, 0, i), AvgPrice: p}
	}
	return series
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(DefaultSpec())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuilder_VectorWidth(t *testing.T) {
	b := newTestBuilder(t)

	if b.Dim() != 35 {
		t.Fatalf("Dim: got %d, want 35", b.Dim())
	}

	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	vec, err := b.Build(series, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(vec) != 35 {
		t.Errorf("vector width: got %d, want 35", len(vec))
	}
}

func TestBuilder_NumericLayout(t *testing.T) {
	b := newTestBuilder(t)

	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	// 2025-03-10 is a Monday.
	predictDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	vec, err := b.Build(series, predictDate, "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := map[int]float64{
		IdxLag1:       14,  // last entry
		IdxLag3:       12,  // 3 days back from predict date
		IdxLag7:       8,   // 7 days back from predict date
		IdxRoll7Mean:  11,  // mean of 8..14
		IdxRoll7Std:   2,   // population std of 8..14
		IdxRoll10Mean: 9.5, // mean of 5..14
		IdxDayOfWeek:  1,   // Monday
		IdxDayOfMonth: 10,
		IdxMonth:      3,
	}
	for idx, w := range want {
		if !almostEqual(vec[idx], w) {
			t.Errorf("slot %d: got %v, want %v", idx, vec[idx], w)
		}
	}
}

func TestBuilder_CalendarFromPredictDate(t *testing.T) {
	b := newTestBuilder(t)
	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)

	// Day 3 of the forecast lands on Wednesday March 12.
	vec, err := b.Build(series, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if vec[IdxDayOfWeek] != 3 {
		t.Errorf("dow: got %v, want 3 (Wednesday)", vec[IdxDayOfWeek])
	}
	if vec[IdxDayOfMonth] != 12 {
		t.Errorf("dom: got %v, want 12", vec[IdxDayOfMonth])
	}
}

func TestBuilder_ShortSeriesLagsAreZero(t *testing.T) {
	b := newTestBuilder(t)

	series := makeSeries(5, 6)
	vec, err := b.Build(series, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if vec[IdxLag1] != 6 {
		t.Errorf("lag_1: got %v, want 6", vec[IdxLag1])
	}
	if vec[IdxLag3] != 0 {
		t.Errorf("lag_3 on a 2-point series: got %v, want 0", vec[IdxLag3])
	}
	if vec[IdxLag7] != 0 {
		t.Errorf("lag_7 on a 2-point series: got %v, want 0", vec[IdxLag7])
	}

	// Rolls use however many points exist.
	if !almostEqual(vec[IdxRoll7Mean], 5.5) {
		t.Errorf("roll7_mean: got %v, want 5.5", vec[IdxRoll7Mean])
	}
}

func TestBuilder_StdZeroForSinglePoint(t *testing.T) {
	b := newTestBuilder(t)

	series := makeSeries(7)
	vec, err := b.Build(series, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if vec[IdxRoll7Std] != 0 {
		t.Errorf("roll7_std on a 1-point series: got %v, want 0", vec[IdxRoll7Std])
	}
}

func TestBuilder_OneHotBlocks(t *testing.T) {
	spec := DefaultSpec()
	b := newTestBuilder(t)

	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	vec, err := b.Build(series, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	productBlock := vec[NumericCount : NumericCount+len(spec.ProductCategories)]
	cityBlock := vec[NumericCount+len(spec.ProductCategories):]

	checkOneHot := func(name string, block []float64, categories []string, want string) {
		var ones int
		for i, v := range block {
			if v == 1 {
				ones++
				if categories[i] != want {
					t.Errorf("%s one-hot set at %q, want %q", name, categories[i], want)
				}
			} else if v != 0 {
				t.Errorf("%s one-hot slot %d: got %v, want 0 or 1", name, i, v)
			}
		}
		if ones != 1 {
			t.Errorf("%s one-hot has %d ones, want exactly 1", name, ones)
		}
	}

	checkOneHot("product", productBlock, spec.ProductCategories, "Pork")
	checkOneHot("city", cityBlock, spec.CityCategories, "Nanjing")
}

func TestBuilder_UnknownCategoriesYieldZeroBlocks(t *testing.T) {
	spec := DefaultSpec()
	b := newTestBuilder(t)

	series := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	vec, err := b.Build(series, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Durian", "Shanghai")
	if err != nil {
		t.Fatalf("Build should not fail on unknown categories: %v", err)
	}

	for i := NumericCount; i < spec.Dim(); i++ {
		if vec[i] != 0 {
			t.Errorf("one-hot slot %d: got %v, want 0 for unknown categories", i, vec[i])
		}
	}
}

func TestBuilder_EmptySeries(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build(nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Pork", "Nanjing")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch for empty series, got %v", err)
	}
}

func TestNewBuilder_RejectsReorderedNumericFeatures(t *testing.T) {
	spec := DefaultSpec()
	spec.NumericFeatures[0], spec.NumericFeatures[1] = spec.NumericFeatures[1], spec.NumericFeatures[0]

	_, err := NewBuilder(spec)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch for reordered layout, got %v", err)
	}
}

func TestNewBuilder_RejectsEmptyCatalog(t *testing.T) {
	spec := DefaultSpec()
	spec.CityCategories = nil

	_, err := NewBuilder(spec)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch for empty catalog, got %v", err)
	}
}
