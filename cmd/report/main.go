// Package main regenerates the report artifacts of a stored analysis run.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"airline-pricing-lab/internal/config"
	"airline-pricing-lab/internal/orchestrator"
	"airline-pricing-lab/internal/pipeline"
)

func main() {
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.LoadReport(".env", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.PostgresDSN, cfg.ClickhouseDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	stats, err := stores.Aggregates.GetByRunID(ctx, cfg.RunID)
	if err != nil {
		logger.Fatalf("Failed to load run %s: %v", cfg.RunID, err)
	}

	// The clickhouse trace is used only when a DSN was given.
	dayStore := stores.DayRecords
	if cfg.ClickhouseDSN == "" {
		dayStore = nil
	}

	out, err := pipeline.NewReportPipeline(stores.Trials, dayStore, stores.Aggregates, cfg.OutputDir).
		Run(ctx, cfg.RunID, cfg.Mode, string(stats.Policy))
	if err != nil {
		logger.Fatalf("Failed to write reports: %v", err)
	}

	fmt.Printf("Generated %s\n", out.ReportPath)
	fmt.Printf("Generated %s\n", out.TrialsPath)
	fmt.Printf("Generated %s\n", out.DaysPath)
}
