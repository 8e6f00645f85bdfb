package forecast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/history"
	"agriprice-lab/internal/scorer"
)

// stubScorer scores with an arbitrary function over the input.
type stubScorer struct {
	fn      func(in scorer.Input) (float64, error)
	version string
	calls   int
}

func (s *stubScorer) Score(_ context.Context, in scorer.Input) (float64, error) {
	s.calls++
	return s.fn(in)
}

func (s *stubScorer) Version() string {
	if s.version == "" {
		return "stub-v1"
	}
	return s.version
}

func testBuilder(t *testing.T) *feature.Builder {
	t.Helper()
	b, err := feature.NewBuilder(feature.DefaultSpec())
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

func flatSeries(n int, price float64) domain.DailySeries {
	end := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(n - 1))

	series := make(domain.DailySeries, n)
	for i := range series {
		series[i] = domain.DailyPrice{Date: start.AddDate(0, 0, i), AvgPrice: price}
	}
	return series
}

var testProduct = &domain.Product{ID: "prod_pork", Name: "Pork", Category: "meat"}

func TestForecaster_FlatSeries(t *testing.T) {
	// A scorer that echoes roll7_mean keeps a flat series flat.
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		return in.Features[feature.IdxRoll7Mean], nil
	}}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 3)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if len(got.Points) != 3 {
		t.Fatalf("points: got %d, want 3", len(got.Points))
	}
	for i, p := range got.Points {
		if p.Price != 10 {
			t.Errorf("day %d: got %v, want 10.00", i+1, p.Price)
		}
	}
	if got.ModelVersion != "stub-v1" {
		t.Errorf("model version: got %s", got.ModelVersion)
	}
	if got.ProductID != "prod_pork" || got.City != "Nanjing" {
		t.Errorf("identity: got %s/%s", got.ProductID, got.City)
	}
}

func TestForecaster_SequentialDates(t *testing.T) {
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) { return 5, nil }}
	f := New(testBuilder(t), s)

	series := flatSeries(14, 10)
	got, err := f.Forecast(context.Background(), series, testProduct, "Nanjing", 5)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	last := series.LastDate()
	for i, p := range got.Points {
		want := last.AddDate(0, 0, i+1)
		if !p.Date.Equal(want) {
			t.Errorf("day %d: got %s, want %s", i+1, p.Date, want)
		}
	}
}

func TestForecaster_PredictionsFeedBack(t *testing.T) {
	// Each day predicts yesterday's value + 1: day i+1's lag_1 must be
	// day i's prediction.
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		return in.Features[feature.IdxLag1] + 1, nil
	}}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 20), testProduct, "Nanjing", 4)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	want := []float64{21, 22, 23, 24}
	for i, p := range got.Points {
		if p.Price != want[i] {
			t.Errorf("day %d: got %v, want %v", i+1, p.Price, want[i])
		}
	}
}

func TestForecaster_DayOffsetsAndFixedHistory(t *testing.T) {
	var offsets []int
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		offsets = append(offsets, in.DayOffset)
		if len(in.History) != 14 {
			return 0, fmt.Errorf("history window has %d entries, want 14", len(in.History))
		}
		for _, v := range in.History {
			if v != 10 {
				return 0, fmt.Errorf("synthetic value leaked into the real window: %v", v)
			}
		}
		return 99, nil // far from the real values; must never show up in History
	}}
	f := New(testBuilder(t), s)

	_, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 3)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	for i, off := range offsets {
		if off != i+1 {
			t.Errorf("call %d: day offset %d, want %d", i, off, i+1)
		}
	}
}

func TestForecaster_OutputRounded(t *testing.T) {
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) { return 3.14159, nil }}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 1)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if got.Points[0].Price != 3.14 {
		t.Errorf("got %v, want 3.14", got.Points[0].Price)
	}
}

func TestForecaster_FullPrecisionFeedsBack(t *testing.T) {
	// First day predicts a value that rounds down; the second day must
	// see the unrounded value in lag_1.
	var secondLag1 float64
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		if in.DayOffset == 2 {
			secondLag1 = in.Features[feature.IdxLag1]
		}
		return 10.005, nil
	}}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 2)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if secondLag1 != 10.005 {
		t.Errorf("day 2 lag_1: got %v, want the unrounded 10.005", secondLag1)
	}
	if got.Points[0].Price != 10.01 {
		t.Errorf("day 1 output: got %v, want 10.01", got.Points[0].Price)
	}
}

func TestForecaster_ScorerFailureAborts(t *testing.T) {
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		if in.DayOffset == 2 {
			return 0, fmt.Errorf("%w: inference down", scorer.ErrScorerFailure)
		}
		return 10, nil
	}}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 5)
	if !errors.Is(err, scorer.ErrScorerFailure) {
		t.Errorf("expected ErrScorerFailure, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial forecast, got %d points", len(got.Points))
	}
	if s.calls != 2 {
		t.Errorf("scorer called %d times, want 2 (abort on failure)", s.calls)
	}
}

func TestForecaster_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stubScorer{fn: func(in scorer.Input) (float64, error) {
		if in.DayOffset == 2 {
			cancel()
		}
		return 10, nil
	}}
	f := New(testBuilder(t), s)

	_, err := f.Forecast(ctx, flatSeries(14, 10), testProduct, "Nanjing", 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	// Cancelled after day 2 started; day 3 must never begin.
	if s.calls != 2 {
		t.Errorf("scorer called %d times, want 2", s.calls)
	}
}

func TestForecaster_InvalidDays(t *testing.T) {
	s := &stubScorer{fn: func(scorer.Input) (float64, error) { return 10, nil }}
	f := New(testBuilder(t), s)

	for _, days := range []int{0, -1} {
		_, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", days)
		if !errors.Is(err, ErrInvalidDays) {
			t.Errorf("days=%d: expected ErrInvalidDays, got %v", days, err)
		}
	}
}

func TestForecaster_ShortSeries(t *testing.T) {
	s := &stubScorer{fn: func(scorer.Input) (float64, error) { return 10, nil }}
	f := New(testBuilder(t), s)

	_, err := f.Forecast(context.Background(), flatSeries(history.MinDays-1, 10), testProduct, "Nanjing", 3)
	if !errors.Is(err, history.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}

	if _, err := f.Forecast(context.Background(), flatSeries(history.MinDays, 10), testProduct, "Nanjing", 3); err != nil {
		t.Errorf("expected success at exactly %d days, got %v", history.MinDays, err)
	}
}

func TestForecaster_NegativePredictionsClamped(t *testing.T) {
	s := &stubScorer{fn: func(scorer.Input) (float64, error) { return -5, nil }}
	f := New(testBuilder(t), s)

	got, err := f.Forecast(context.Background(), flatSeries(14, 10), testProduct, "Nanjing", 2)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	for i, p := range got.Points {
		if p.Price != 0 {
			t.Errorf("day %d: got %v, want 0", i+1, p.Price)
		}
	}
}
