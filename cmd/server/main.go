// Package main runs the forecast HTTP service: price history in
// Postgres, forecast archive in ClickHouse, optional Redis cache, and
// the model or statistical scorer behind the prediction endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agriprice-lab/internal/api"
	"agriprice-lab/internal/cache"
	"agriprice-lab/internal/config"
	"agriprice-lab/internal/engine"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/fixtures"
	"agriprice-lab/internal/scorer"
	"agriprice-lab/internal/storage"
	chstore "agriprice-lab/internal/storage/clickhouse"
	"agriprice-lab/internal/storage/memory"
	"agriprice-lab/internal/storage/migrations"
	pgstore "agriprice-lab/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	products    storage.ProductStore
	prices      storage.MarketPriceStore
	predictions storage.PredictionStore
	archive     storage.ForecastArchiveStore
}

func main() {
	// Load .env file if exists
	config.LoadEnvFile()
	cfg := config.Load()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", cfg.Server.ListenAddr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.Database.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Database.ClickhouseDSN, "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", cfg.Redis.Addr, "Redis address for the shared forecast cache (empty = in-process cache)")
	scorerKind := flag.String("scorer", cfg.Forecast.ScorerKind, "Scorer kind: model or statistical")
	inferenceURL := flag.String("inference-url", cfg.Forecast.InferenceURL, "Trained-model inference service base URL")
	featureSpec := flag.String("feature-spec", cfg.Forecast.FeatureSpecSource, "Feature layout source: file path or URL (empty = built-in)")
	cacheTTL := flag.Duration("cache-ttl", cfg.Forecast.CacheTTL, "Forecast cache TTL")
	lookbackDays := flag.Int("lookback-days", cfg.Forecast.LookbackDays, "Trailing days of history to load (0 = all)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	seedFixtures := flag.Bool("seed-fixtures", false, "Seed demo products and prices (in-memory mode)")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *seedFixtures {
		if err := fixtures.Load(ctx, stores.products, stores.prices, 1); err != nil {
			logger.Fatalf("Failed to seed fixtures: %v", err)
		}
		logger.Println("Seeded demo products and prices")
	}

	// Feature layout
	spec, err := feature.NewLoader(*featureSpec).Load(ctx)
	if err != nil {
		logger.Fatalf("Failed to load feature layout: %v", err)
	}
	builder, err := feature.NewBuilder(spec)
	if err != nil {
		logger.Fatalf("Invalid feature layout: %v", err)
	}
	logger.Printf("Feature layout %s: %d dims", spec.ModelVersion, spec.Dim())

	// Scorer
	sc, err := scorer.FromConfig(scorer.Config{
		Kind:         scorer.Kind(*scorerKind),
		InferenceURL: *inferenceURL,
	})
	if err != nil {
		logger.Fatalf("Failed to create scorer: %v", err)
	}
	if ms, ok := sc.(*scorer.ModelScorer); ok {
		if err := ms.Prime(ctx); err != nil {
			logger.Fatalf("Inference service unavailable at %s: %v", *inferenceURL, err)
		}
		logger.Printf("Using model scorer %s", ms.Version())
	} else {
		logger.Printf("Using scorer %s", sc.Version())
	}

	// Cache
	forecastCache, err := createCache(ctx, *redisAddr, cfg)
	if err != nil {
		logger.Fatalf("Failed to create forecast cache: %v", err)
	}
	defer forecastCache.Close()

	// Engine
	eng := engine.New(engine.Options{
		Products:     stores.products,
		Prices:       stores.prices,
		Builder:      builder,
		Scorer:       sc,
		Predictions:  stores.predictions,
		Archive:      stores.archive,
		Cache:        forecastCache,
		CacheTTL:     *cacheTTL,
		LookbackDays: *lookbackDays,
		Verbose:      *verbose,
	})

	// HTTP server
	handler := api.NewHandler(eng, stores.products, stores.prices, spec)
	srv := &http.Server{
		Addr:         *listenAddr,
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, running migrations first.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			products:    memory.NewProductStore(),
			prices:      memory.NewMarketPriceStore(),
			predictions: memory.NewPredictionStore(),
			archive:     memory.NewForecastArchiveStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL (serving tables)
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse (forecast archive)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		products:    pgstore.NewProductStore(pool),
		prices:      pgstore.NewMarketPriceStore(pool),
		predictions: pgstore.NewPredictionStore(pool),
		archive:     chstore.NewForecastArchiveStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// createCache selects Redis when configured, the in-process cache otherwise.
func createCache(ctx context.Context, redisAddr string, cfg *config.Config) (cache.ForecastCache, error) {
	if redisAddr == "" {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, redisAddr, cfg.Redis.Password, cfg.Redis.DB)
}
