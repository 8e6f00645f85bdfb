// Package main runs a single forecast from the command line and prints
// the predicted daily prices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"agriprice-lab/internal/config"
	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/engine"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/fixtures"
	"agriprice-lab/internal/forecast"
	"agriprice-lab/internal/scorer"
	"agriprice-lab/internal/storage/memory"
	"agriprice-lab/internal/storage/migrations"
	pgstore "agriprice-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile()
	cfg := config.Load()

	// Parse flags (env vars as defaults)
	product := flag.String("product", "", "Product display name (required)")
	city := flag.String("city", "", "City name (required)")
	days := flag.Int("days", forecast.DefaultDays, "Forecast horizon in days")
	postgresDSN := flag.String("postgres-dsn", cfg.Database.PostgresDSN, "PostgreSQL connection string")
	scorerKind := flag.String("scorer", cfg.Forecast.ScorerKind, "Scorer kind: model or statistical")
	inferenceURL := flag.String("inference-url", cfg.Forecast.InferenceURL, "Trained-model inference service base URL")
	featureSpec := flag.String("feature-spec", cfg.Forecast.FeatureSpecSource, "Feature layout source: file path or URL (empty = built-in)")
	lookbackDays := flag.Int("lookback-days", cfg.Forecast.LookbackDays, "Trailing days of history to load (0 = all)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage seeded with demo data")
	seed := flag.Int64("seed", 0, "Statistical scorer noise seed (0 = time-seeded)")

	flag.Parse()

	logger := log.New(os.Stderr, "[forecast] ", log.LstdFlags)

	if *product == "" || *city == "" {
		logger.Fatal("--product and --city are required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for demo data)")
	}

	ctx := context.Background()

	opts := engine.Options{LookbackDays: *lookbackDays}
	var cleanup func()
	if *useMemory {
		products := memory.NewProductStore()
		prices := memory.NewMarketPriceStore()
		if err := fixtures.Load(ctx, products, prices, 1); err != nil {
			logger.Fatalf("Failed to seed fixtures: %v", err)
		}
		opts.Products = products
		opts.Prices = prices
		cleanup = func() {}
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to postgres: %v", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			logger.Fatalf("Postgres migrations: %v", err)
		}
		opts.Products = pgstore.NewProductStore(pool)
		opts.Prices = pgstore.NewMarketPriceStore(pool)
		opts.Predictions = pgstore.NewPredictionStore(pool)
		cleanup = pool.Close
	}
	defer cleanup()

	spec, err := feature.NewLoader(*featureSpec).Load(ctx)
	if err != nil {
		logger.Fatalf("Failed to load feature layout: %v", err)
	}
	builder, err := feature.NewBuilder(spec)
	if err != nil {
		logger.Fatalf("Invalid feature layout: %v", err)
	}

	sc, err := scorer.FromConfig(scorer.Config{
		Kind:         scorer.Kind(*scorerKind),
		InferenceURL: *inferenceURL,
		Seed:         *seed,
	})
	if err != nil {
		logger.Fatalf("Failed to create scorer: %v", err)
	}
	opts.Builder = builder
	opts.Scorer = sc

	result, err := engine.New(opts).Predict(ctx, *product, *city, *days)
	if err != nil && !errors.Is(err, engine.ErrPersistence) {
		logger.Fatalf("Forecast failed: %v", err)
	}
	if err != nil {
		logger.Printf("Warning: %v", err)
	}

	fmt.Printf("Forecast for %s in %s (%s)\n", result.ProductName, result.City, result.ModelVersion)
	for _, p := range result.Points {
		fmt.Printf("  %s  %8.2f\n", p.Date.Format(domain.DateLayout), p.Price)
	}
}
