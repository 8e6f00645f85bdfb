package scorer

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestStatisticalScorer_Version(t *testing.T) {
	s := NewStatisticalScorer(1)
	if s.Version() != StatisticalVersion {
		t.Errorf("version: got %s, want %s", s.Version(), StatisticalVersion)
	}
}

func TestStatisticalScorer_FlatHistoryIsExact(t *testing.T) {
	s := NewStatisticalScorer(1)

	// Flat history: zero trend, zero deviation, zero noise.
	in := Input{DayOffset: 1, History: []float64{10, 10, 10, 10, 10, 10, 10}}
	got, err := s.Score(context.Background(), in)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if got != 10 {
		t.Errorf("flat history: got %v, want 10", got)
	}
}

func TestStatisticalScorer_PredictionBound(t *testing.T) {
	history := []float64{9.2, 9.8, 10.1, 9.5, 10.4, 10.9, 11.2}

	recent := history
	avg := mean(recent)
	trend := trendOf(recent)
	std := stdDev(recent, avg)

	// Bound holds for any seed and any day offset:
	// |pred - avg7| <= |trend|*avg7*offset*0.5 + 0.15*std7.
	for seed := int64(1); seed <= 25; seed++ {
		s := NewStatisticalScorer(seed)
		for offset := 1; offset <= 5; offset++ {
			got, err := s.Score(context.Background(), Input{DayOffset: offset, History: history})
			if err != nil {
				t.Fatalf("seed %d offset %d: %v", seed, offset, err)
			}

			bound := math.Abs(trend)*avg*float64(offset)*0.5 + 0.15*std + 1e-9
			if math.Abs(got-avg) > bound {
				t.Errorf("seed %d offset %d: |%v - %v| exceeds bound %v", seed, offset, got, avg, bound)
			}
		}
	}
}

func TestStatisticalScorer_TrendScalesWithOffset(t *testing.T) {
	// Strictly rising history with no deviation contribution dominating:
	// farther offsets must extrapolate farther from the average.
	history := []float64{10, 12, 14, 16, 18, 20}
	avg := mean(history)

	s := NewStatisticalScorer(7)
	d1, err := s.Score(context.Background(), Input{DayOffset: 1, History: history})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	d5, err := s.Score(context.Background(), Input{DayOffset: 5, History: history})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if d1 <= avg {
		t.Errorf("rising trend, offset 1: got %v, want > avg %v", d1, avg)
	}
	if d5 <= d1 {
		t.Errorf("rising trend: offset 5 prediction %v should exceed offset 1 prediction %v", d5, d1)
	}
}

func TestStatisticalScorer_UsesOnlyLastSevenDays(t *testing.T) {
	s1 := NewStatisticalScorer(3)
	s2 := NewStatisticalScorer(3)

	last7 := []float64{9, 9.5, 10, 10.5, 11, 11.5, 12}
	longer := append([]float64{100, 200, 300}, last7...)

	a, err := s1.Score(context.Background(), Input{DayOffset: 2, History: last7})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	b, err := s2.Score(context.Background(), Input{DayOffset: 2, History: longer})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if a != b {
		t.Errorf("history beyond the last 7 days leaked in: %v != %v", a, b)
	}
}

func TestStatisticalScorer_ShortWindowHasNoTrend(t *testing.T) {
	// Fewer than 6 points: no trend, prediction is avg plus bounded noise.
	history := []float64{10, 11, 12}
	avg := mean(history)
	std := stdDev(history, avg)

	s := NewStatisticalScorer(11)
	got, err := s.Score(context.Background(), Input{DayOffset: 4, History: history})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if math.Abs(got-avg) > 0.15*std+1e-9 {
		t.Errorf("short window: got %v, want within noise of %v", got, avg)
	}
}

func TestStatisticalScorer_NeverNegative(t *testing.T) {
	// Steeply falling history drives the extrapolation below zero.
	history := []float64{100, 80, 60, 40, 20, 1}

	for seed := int64(1); seed <= 10; seed++ {
		s := NewStatisticalScorer(seed)
		got, err := s.Score(context.Background(), Input{DayOffset: 10, History: history})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if got < 0 {
			t.Errorf("seed %d: negative prediction %v", seed, got)
		}
	}
}

func TestStatisticalScorer_InvalidInput(t *testing.T) {
	s := NewStatisticalScorer(1)
	ctx := context.Background()

	_, err := s.Score(ctx, Input{DayOffset: 1})
	if !errors.Is(err, ErrScorerFailure) {
		t.Errorf("empty history: expected ErrScorerFailure, got %v", err)
	}

	_, err = s.Score(ctx, Input{DayOffset: 0, History: []float64{10}})
	if !errors.Is(err, ErrScorerFailure) {
		t.Errorf("zero offset: expected ErrScorerFailure, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	if _, err := FromConfig(Config{Kind: KindStatistical}); err != nil {
		t.Errorf("statistical: %v", err)
	}

	if _, err := FromConfig(Config{Kind: KindModel}); !errors.Is(err, ErrMissingInferenceURL) {
		t.Errorf("model without URL: expected ErrMissingInferenceURL, got %v", err)
	}

	if _, err := FromConfig(Config{Kind: KindModel, InferenceURL: "http://localhost:9000"}); err != nil {
		t.Errorf("model with URL: %v", err)
	}

	if _, err := FromConfig(Config{Kind: "oracle"}); !errors.Is(err, ErrUnknownScorerKind) {
		t.Errorf("unknown kind: expected ErrUnknownScorerKind, got %v", err)
	}
}
