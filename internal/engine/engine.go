// Package engine wires the full forecast path:
// history -> features -> autoregressive scoring -> persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agriprice-lab/internal/cache"
	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/forecast"
	"agriprice-lab/internal/history"
	"agriprice-lab/internal/observability"
	"agriprice-lab/internal/scorer"
	"agriprice-lab/internal/storage"
)

// DefaultCacheTTL bounds how long a completed forecast is served from
// cache before being recomputed.
const DefaultCacheTTL = 15 * time.Minute

// ErrPersistence indicates the forecast was produced but could not be
// fully persisted. The forecast is returned alongside this error so
// callers can still serve it.
var ErrPersistence = errors.New("forecast persistence failed")

// Engine runs forecasts end to end and persists the results.
type Engine struct {
	reader     *history.Reader
	forecaster *forecast.Forecaster
	scorer     scorer.Scorer

	predictions storage.PredictionStore
	archive     storage.ForecastArchiveStore
	cache       cache.ForecastCache

	cacheTTL     time.Duration
	lookbackDays int
	verbose      bool
}

// Options for creating an Engine.
type Options struct {
	// Required stores
	Products storage.ProductStore
	Prices   storage.MarketPriceStore

	// Required forecast path
	Builder *feature.Builder
	Scorer  scorer.Scorer

	// Optional persistence. Nil disables the corresponding write.
	Predictions storage.PredictionStore
	Archive     storage.ForecastArchiveStore

	// Optional cache in front of the whole path.
	Cache    cache.ForecastCache
	CacheTTL time.Duration

	// LookbackDays restricts how much history is loaded. 0 loads all.
	LookbackDays int

	Verbose bool
}

// New creates a new Engine.
func New(opts Options) *Engine {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	instrumented := instrumentedScorer{
		inner: opts.Scorer,
		kind:  string(scorerKind(opts.Scorer)),
	}

	return &Engine{
		reader:       history.NewReader(opts.Products, opts.Prices),
		forecaster:   forecast.New(opts.Builder, instrumented),
		scorer:       opts.Scorer,
		predictions:  opts.Predictions,
		archive:      opts.Archive,
		cache:        opts.Cache,
		cacheTTL:     ttl,
		lookbackDays: opts.LookbackDays,
		verbose:      opts.Verbose,
	}
}

// Predict forecasts the next days daily prices for a product (by
// display name) in a city and persists the result.
//
// days <= 0 falls back to the default horizon. Persistence failures do
// not void the forecast: the forecast is returned together with an
// error wrapping ErrPersistence.
func (e *Engine) Predict(ctx context.Context, productName, city string, days int) (*domain.Forecast, error) {
	if days <= 0 {
		days = forecast.DefaultDays
	}

	key := cache.Key(productName, city, days, e.scorer.Version())
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		if err == nil {
			observability.RecordCacheHit()
			e.log("cache hit for %s/%s days=%d", productName, city, days)
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.log("cache get failed for %s/%s: %v", productName, city, err)
		}
		observability.RecordCacheMiss()
	}

	start := time.Now()

	series, product, err := e.reader.DailySeries(ctx, productName, city, e.lookbackDays)
	if err != nil {
		observability.RecordForecast(string(scorerKind(e.scorer)), "error", time.Since(start).Seconds(), 0)
		observability.RecordForecastError(errorType(err))
		return nil, err
	}

	result, err := e.forecaster.Forecast(ctx, series, product, city, days)
	if err != nil {
		observability.RecordForecast(string(scorerKind(e.scorer)), "error", time.Since(start).Seconds(), 0)
		observability.RecordForecastError(errorType(err))
		return nil, err
	}

	observability.RecordForecast(string(scorerKind(e.scorer)), "ok", time.Since(start).Seconds(), len(result.Points))
	observability.MarkForecastSuccess(result.CreatedAt.Unix())
	e.log("forecast %s/%s days=%d model=%s in %s",
		productName, city, days, result.ModelVersion, time.Since(start).Round(time.Millisecond))

	if err := e.persist(ctx, result); err != nil {
		observability.RecordForecastError("persistence")
		return result, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, result, e.cacheTTL); err != nil {
			e.log("cache set failed for %s/%s: %v", productName, city, err)
		}
	}

	return result, nil
}

// persist writes the forecast to the serving table and the archive.
func (e *Engine) persist(ctx context.Context, f *domain.Forecast) error {
	rows := f.Rows()

	if e.predictions != nil {
		start := time.Now()
		err := e.predictions.Upsert(ctx, rows)
		observability.RecordDBQuery("postgres", "upsert_predictions", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("upsert predictions: %w", err)
		}
	}

	if e.archive != nil {
		start := time.Now()
		err := e.archive.InsertBulk(ctx, rows)
		observability.RecordDBQuery("clickhouse", "archive_forecast", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("archive forecast: %w", err)
		}
	}

	return nil
}

func (e *Engine) log(format string, args ...any) {
	if e.verbose {
		log.Printf("[engine] "+format, args...)
	}
}

// errorType maps an error to a stable metrics label.
func errorType(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, history.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, feature.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, scorer.ErrScorerFailure):
		return "scorer_failure"
	default:
		return "internal"
	}
}

func scorerKind(s scorer.Scorer) scorer.Kind {
	if _, ok := s.(*scorer.StatisticalScorer); ok {
		return scorer.KindStatistical
	}
	return scorer.KindModel
}

// instrumentedScorer records per-call latency and outcome around the
// underlying scorer.
type instrumentedScorer struct {
	inner scorer.Scorer
	kind  string
}

func (s instrumentedScorer) Score(ctx context.Context, in scorer.Input) (float64, error) {
	start := time.Now()
	price, err := s.inner.Score(ctx, in)
	observability.RecordScorerCall(s.kind, time.Since(start).Seconds(), err)
	return price, err
}

func (s instrumentedScorer) Version() string {
	return s.inner.Version()
}
