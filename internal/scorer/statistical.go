package scorer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// StatisticalVersion tags forecasts produced by the fallback scorer.
const StatisticalVersion = "Statistical-Moving-Average-v1.0"

// noiseScale bounds the random perturbation: |noise| <= 0.15 * std7.
const noiseScale = 0.3

// StatisticalScorer is the no-model fallback. From the trailing real
// window it takes the 7-day average, a 3-day-vs-prior-3-day trend and
// the 7-day deviation, and predicts
//
//	avg7 + avg7*trend*dayOffset*0.5 + noise
//
// where noise is uniform in ±0.15*std7. Deliberately non-deterministic;
// every prediction stays within avg7 ± (|trend|*avg7*dayOffset*0.5 + 0.15*std7).
type StatisticalScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStatisticalScorer creates the fallback scorer. A zero seed means
// time-seeded noise.
func NewStatisticalScorer(seed int64) *StatisticalScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &StatisticalScorer{rng: rand.New(rand.NewSource(seed))}
}

// Compile-time interface check.
var _ Scorer = (*StatisticalScorer)(nil)

// Score predicts from the real-history window in the input. The window
// is fixed for the whole forecast, so successive days extrapolate the
// same trend line rather than chasing their own noise.
func (s *StatisticalScorer) Score(_ context.Context, in Input) (float64, error) {
	if len(in.History) == 0 {
		return 0, fmt.Errorf("%w: statistical scorer needs price history", ErrScorerFailure)
	}
	if in.DayOffset < 1 {
		return 0, fmt.Errorf("%w: day offset must be >= 1, got %d", ErrScorerFailure, in.DayOffset)
	}

	recent := in.History
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}

	avg := mean(recent)
	trend := trendOf(recent)
	std := stdDev(recent, avg)

	s.mu.Lock()
	noise := (s.rng.Float64() - 0.5) * std * noiseScale
	s.mu.Unlock()

	predicted := avg + avg*trend*float64(in.DayOffset)*0.5 + noise
	return clampPrice(predicted), nil
}

// Version returns the heuristic's version tag.
func (s *StatisticalScorer) Version() string {
	return StatisticalVersion
}

// trendOf compares the mean of the most recent 3 values with the mean
// of the 3 before them, as a relative change. Windows too short for
// both halves, or a zero older mean, yield no trend.
func trendOf(window []float64) float64 {
	if len(window) < 6 {
		return 0
	}
	recentAvg := mean(window[len(window)-3:])
	olderAvg := mean(window[:3])
	if olderAvg == 0 {
		return 0
	}
	return (recentAvg - olderAvg) / olderAvg
}

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
