// Package scorer maps feature vectors to predicted prices. The two
// implementations are interchangeable behind the Scorer interface and
// selected by configuration, never by branching inside the forecaster.
package scorer

import (
	"context"
	"errors"

	"agriprice-lab/internal/feature"
)

// ErrScorerFailure wraps any scoring error. A failed score aborts the
// whole forecast: later days depend on earlier predictions, so there is
// no safe per-day retry.
var ErrScorerFailure = errors.New("scorer failure")

// Input holds everything a scorer may draw on for one day's prediction.
type Input struct {
	// Features is the full vector for the day being predicted, built
	// from the working series (real history plus synthetic predicted
	// points). The model scorer consumes only this.
	Features feature.Vector

	// DayOffset is the 1-based offset of the predicted day past the
	// last real observation.
	DayOffset int

	// History is the trailing window of real daily averages, oldest to
	// newest, fixed for the whole forecast. The statistical scorer
	// derives its average/trend/deviation from this, never from
	// predicted values.
	History []float64
}

// Scorer predicts a single price from an input. Implementations must
// clamp the result to be non-negative before returning.
type Scorer interface {
	Score(ctx context.Context, in Input) (float64, error)

	// Version identifies the model or heuristic that produced the
	// scores, for tagging persisted forecasts.
	Version() string
}

// Kind selects a scorer implementation.
type Kind string

const (
	// KindModel scores through the external trained-model inference
	// service.
	KindModel Kind = "model"

	// KindStatistical scores with the moving-average/trend heuristic.
	// Used when the trained model is unavailable.
	KindStatistical Kind = "statistical"
)

// Config holds scorer construction parameters.
type Config struct {
	Kind Kind

	// InferenceURL is the base URL of the inference service.
	// Required for KindModel.
	InferenceURL string

	// Seed seeds the statistical scorer's noise source. Zero means
	// time-seeded.
	Seed int64
}

// Factory errors.
var (
	ErrUnknownScorerKind   = errors.New("unknown scorer kind")
	ErrMissingInferenceURL = errors.New("model scorer requires an inference URL")
)

// FromConfig creates a Scorer from configuration. Validates required
// parameters per kind.
func FromConfig(cfg Config) (Scorer, error) {
	switch cfg.Kind {
	case KindModel:
		if cfg.InferenceURL == "" {
			return nil, ErrMissingInferenceURL
		}
		return NewModelScorer(cfg.InferenceURL), nil
	case KindStatistical:
		return NewStatisticalScorer(cfg.Seed), nil
	default:
		return nil, ErrUnknownScorerKind
	}
}

// clampPrice floors a prediction at zero. Negative prices are a model
// artifact, not a market state.
func clampPrice(p float64) float64 {
	if p < 0 {
		return 0
	}
	return p
}
