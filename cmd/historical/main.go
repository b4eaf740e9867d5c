// Package main simulates historical flights from a dataset and prints per-flight
// and summary statistics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"airline-pricing-lab/internal/config"
	"airline-pricing-lab/internal/dataset"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/orchestrator"
	"airline-pricing-lab/internal/pipeline"
	"airline-pricing-lab/internal/pricing"
	"airline-pricing-lab/internal/reporting"
	"airline-pricing-lab/internal/verification"
)

func main() {
	cfg, err := config.Load("historical", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr, "historical")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[historical] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	view := loadView(cfg.DataPath, cfg.Class, logger)

	model, err := pricing.FromConfig(cfg.PricingConfig())
	if err != nil {
		logger.Fatalf("Invalid policy: %v", err)
	}

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.PostgresDSN, cfg.ClickhouseDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	orch, err := orchestrator.New(orchestrator.Options{
		Model:          model,
		SeatsTotal:     cfg.Seats,
		HorizonDays:    cfg.Horizon,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Fallback:       cfg.DemandRange(),
		View:           view,
		TrialStore:     stores.Trials,
		DayRecordStore: stores.DayRecords,
		AggregateStore: stores.Aggregates,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create orchestrator: %v", err)
	}

	ids := orch.FlightIDs(cfg.Flights)
	logger.Printf("Simulating %d flights over %d days", len(ids), orch.HistoricalHorizon())

	res, err := orch.RunFlights(ctx, ids)
	if err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}

	if cfg.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			RunID   string                 `json:"run_id"`
			Flights []domain.TrialSummary  `json:"flights"`
			Stats   *domain.AggregateStats `json:"stats"`
		}{res.RunID, res.Summaries, res.Stats}); err != nil {
			logger.Fatalf("Encode: %v", err)
		}
	} else {
		for _, t := range res.Trials {
			printFlight(t)
		}
		printSummary(res.Stats)
	}

	if cfg.Verify {
		verifyRun(ctx, orch, stores, res.RunID, orchestrator.ModeHistorical, logger)
	}

	replay := fmt.Sprintf("go run ./cmd/historical --policy %s --data %q --class %s --flights %d --seats %d --seed %d",
		cfg.Policy, cfg.DataPath, cfg.Class, cfg.Flights, cfg.Seats, cfg.Seed)
	out, err := pipeline.NewReportPipeline(stores.Trials, stores.DayRecords, stores.Aggregates, cfg.OutputDir).
		WithReplayCommand(replay).
		Run(ctx, res.RunID, reporting.ModeHistorical, res.PolicyID)
	if err != nil {
		logger.Fatalf("Failed to write reports: %v", err)
	}
	logger.Printf("Run %s: reports written to %s/", res.RunID, out.Dir)
}

// loadView returns nil when the dataset cannot be loaded; demand then comes
// from the fallback range.
func loadView(path, class string, logger *log.Logger) *dataset.View {
	if path == "" {
		logger.Println("No dataset configured, using fallback demand")
		return nil
	}
	table, err := dataset.LoadCSV(path)
	if err != nil {
		logger.Printf("Failed to load dataset %s: %v (using fallback demand)", path, err)
		return nil
	}
	view := table.FilterClass(class)
	logger.Printf("Loaded %d %s rows (%d flights, max %d days before departure)",
		view.Len(), class, len(view.AvailableFlightIDs()), view.MaxDays())
	return view
}

func printFlight(t *domain.TrialResult) {
	var sb strings.Builder
	flight := "-"
	if t.FlightID != nil {
		flight = fmt.Sprintf("%d", *t.FlightID)
	}

	var sumPrice float64
	for _, d := range t.Days {
		sumPrice += d.Price
	}
	avgPrice := 0.0
	if len(t.Days) > 0 {
		avgPrice = sumPrice / float64(len(t.Days))
	}

	sb.WriteString(fmt.Sprintf("\nSimulation Results for Flight %s:\n", flight))
	sb.WriteString(fmt.Sprintf("Total Revenue: $%.2f\n", t.TotalRevenue))
	sb.WriteString(fmt.Sprintf("Remaining Seats: %.1f\n", t.RemainingSeats))
	sb.WriteString(fmt.Sprintf("Average Price: $%.2f\n", avgPrice))
	sb.WriteString("\nDaily Breakdown:\n")
	for _, d := range t.Days {
		sb.WriteString(fmt.Sprintf("Day %d: Price=$%.2f, Sold=%.1f, Revenue=$%.2f, Demand=%.1f",
			d.Day, d.Price, d.QuantitySold, d.Revenue, d.DemandLevel))
		if d.HistoricalPrice != nil {
			sb.WriteString(fmt.Sprintf(", Historical=$%.2f", *d.HistoricalPrice))
		}
		if d.DemandFallback {
			sb.WriteString(" (fallback)")
		}
		sb.WriteString("\n")
	}
	fmt.Print(sb.String())
}

func printSummary(s *domain.AggregateStats) {
	fmt.Printf("\nSummary Statistics (over %d flights):\n", s.TrialCount)
	fmt.Printf("Average Revenue: $%.2f\n", s.RevenueMean)
	fmt.Printf("Standard Deviation: $%.2f\n", s.RevenueStddev)
	fmt.Printf("Min Revenue: $%.2f\n", s.RevenueMin)
	fmt.Printf("Max Revenue: $%.2f\n", s.RevenueMax)
}

// verifyRun replays every stored trial of runID and exits non-zero on divergence.
func verifyRun(ctx context.Context, orch *orchestrator.Orchestrator, stores *orchestrator.Stores, runID, mode string, logger *log.Logger) {
	replayer, err := orch.ReplayRunner(mode)
	if err != nil {
		logger.Fatalf("Failed to create replay runner: %v", err)
	}
	report, err := verification.NewTrialVerifier(stores.Trials, replayer).VerifyRun(ctx, runID)
	if err != nil {
		logger.Fatalf("Verification failed: %v", err)
	}
	for _, r := range report.Results {
		for _, d := range r.Divergences {
			logger.Printf("Trial %s: %s stored=%v replayed=%v", r.TrialID, d.Field, d.Expected, d.Actual)
		}
	}
	logger.Printf("Verified %d trials: %d matched, %d divergent", report.TotalTrials, report.MatchedTrials, report.DivergentTrials)
	if report.DivergentTrials > 0 {
		os.Exit(2)
	}
}
