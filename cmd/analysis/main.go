// Package main runs N random-demand trials and prints summary statistics.
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
	"syscall"
	"time"

	"airline-pricing-lab/internal/config"
	"airline-pricing-lab/internal/orchestrator"
	"airline-pricing-lab/internal/pipeline"
	"airline-pricing-lab/internal/pricing"
	"airline-pricing-lab/internal/reporting"
	"airline-pricing-lab/internal/verification"
)

func main() {
	cfg, err := config.Load("analysis", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr, "analysis")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[analysis] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		TrialStore:     stores.Trials,
		DayRecordStore: stores.DayRecords,
		AggregateStore: stores.Aggregates,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create orchestrator: %v", err)
	}

	res, err := orch.RunAnalysis(ctx, cfg.Trials)
	if err != nil {
		logger.Fatalf("Analysis failed: %v", err)
	}

	if cfg.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			RunID    string      `json:"run_id"`
			PolicyID string      `json:"policy_id"`
			Stats    interface{} `json:"stats"`
			Trials   interface{} `json:"trials"`
		}{res.RunID, res.PolicyID, res.Stats, res.Summaries}); err != nil {
			logger.Fatalf("Encode: %v", err)
		}
	} else {
		report := reporting.NewReport(time.Now().UTC(), reporting.ModeRandom, res.PolicyID, res.Stats, res.Trials)
		fmt.Print(reporting.RenderMarkdown(report))
	}

	if cfg.Verify {
		verifyRun(ctx, orch, stores, res.RunID, orchestrator.ModeRandom, logger)
	}

	replay := fmt.Sprintf("go run ./cmd/analysis --policy %s --trials %d --seats %d --horizon %d --seed %d",
		cfg.Policy, cfg.Trials, cfg.Seats, cfg.Horizon, cfg.Seed)
	out, err := pipeline.NewReportPipeline(stores.Trials, stores.DayRecords, stores.Aggregates, cfg.OutputDir).
		WithReplayCommand(replay).
		Run(ctx, res.RunID, reporting.ModeRandom, res.PolicyID)
	if err != nil {
		logger.Fatalf("Failed to write reports: %v", err)
	}
	logger.Printf("Run %s: %d trials in %v, reports written to %s/", res.RunID, len(res.Trials), res.Duration, out.Dir)
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
