// Package main prints forecast accuracy reports: archived predictions
// joined against the daily averages that were later observed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"agriprice-lab/internal/config"
	"agriprice-lab/internal/evaluation"
	chstore "agriprice-lab/internal/storage/clickhouse"
	pgstore "agriprice-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile()
	cfg := config.Load()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", cfg.Database.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Database.ClickhouseDSN, "ClickHouse connection string")

	flag.Parse()

	logger := log.New(os.Stderr, "[evaluate] ", log.LstdFlags)

	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to clickhouse: %v", err)
	}
	defer chConn.Close()

	evaluator := evaluation.NewEvaluator(
		chstore.NewForecastArchiveStore(chConn),
		pgstore.NewMarketPriceStore(pool),
	)

	reports, err := evaluator.Evaluate(ctx)
	if err != nil {
		logger.Fatalf("Evaluation failed: %v", err)
	}
	if len(reports) == 0 {
		fmt.Println("No archived forecasts to evaluate.")
		return
	}

	fmt.Printf("%-12s %-14s %-32s %6s %8s %8s %9s\n",
		"PRODUCT", "CITY", "MODEL", "ROWS", "MAE", "MAPE%", "COVERAGE")
	for _, r := range reports {
		fmt.Printf("%-12s %-14s %-32s %6d %8.2f %8.2f %8.1f%%\n",
			r.ProductName, r.City, r.ModelVersion,
			r.Predictions, r.MAE, r.MAPE, r.Coverage()*100)
	}
}
