// Package orchestrator runs a complete analysis.
// It coordinates: simulation → trial persistence → aggregation → aggregate persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"airline-pricing-lab/internal/dataset"
	"airline-pricing-lab/internal/demand"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/metrics"
	"airline-pricing-lab/internal/observability"
	"airline-pricing-lab/internal/pricing"
	"airline-pricing-lab/internal/simulation"
	"airline-pricing-lab/internal/storage"
	"airline-pricing-lab/internal/storage/memory"
)

// Analysis modes
const (
	ModeRandom     = "random"
	ModeHistorical = "historical"
)

// Orchestrator errors
var (
	ErrNilModel    = errors.New("pricing model is required")
	ErrUnknownMode = errors.New("unknown analysis mode")
)

// Options for creating Orchestrator.
type Options struct {
	Model       *pricing.Model
	SeatsTotal  int
	HorizonDays int // random mode; historical mode uses the dataset's max days when available
	Workers     int
	Seed        int64

	// Demand
	Fallback domain.DemandRange
	View     *dataset.View // nil when no dataset is loaded

	// Stores; nil stores are replaced with in-memory ones
	TrialStore     storage.TrialResultStore
	DayRecordStore storage.DayRecordStore
	AggregateStore storage.AggregateStore

	// OnTrial is called after each persisted trial, from worker goroutines.
	OnTrial func(runID string, s domain.TrialSummary)
	// OnRun is called after the aggregate is stored.
	OnRun func(stats *domain.AggregateStats)

	Logger *log.Logger
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Result contains the outcome of one analysis run.
type Result struct {
	RunID     string
	Mode      string
	PolicyID  string
	Trials    []*domain.TrialResult
	Summaries []domain.TrialSummary
	Stats     *domain.AggregateStats
	Duration  time.Duration
}

// Orchestrator coordinates analysis runs.
type Orchestrator struct {
	opts   Options
	logger *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Model == nil {
		return nil, ErrNilModel
	}
	if opts.TrialStore == nil {
		opts.TrialStore = memory.NewTrialResultStore()
	}
	if opts.DayRecordStore == nil {
		opts.DayRecordStore = memory.NewDayRecordStore()
	}
	if opts.AggregateStore == nil {
		opts.AggregateStore = memory.NewAggregateStore()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return uuid.NewString() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{opts: opts, logger: logger}, nil
}

// TrialStore returns the store trials are written to.
func (o *Orchestrator) TrialStore() storage.TrialResultStore {
	return o.opts.TrialStore
}

// AggregateStore returns the store aggregates are written to.
func (o *Orchestrator) AggregateStore() storage.AggregateStore {
	return o.opts.AggregateStore
}

// HistoricalHorizon returns the horizon used by RunFlights.
func (o *Orchestrator) HistoricalHorizon() int {
	if days := o.opts.View.MaxDays(); days > 0 {
		return days
	}
	return o.opts.HorizonDays
}

// FlightIDs returns up to n flight ids from the dataset.
// Without a dataset the ids 1..n are used and demand comes from the fallback range.
func (o *Orchestrator) FlightIDs(n int) []int64 {
	ids := o.opts.View.AvailableFlightIDs()
	if len(ids) == 0 {
		ids = make([]int64, n)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
		return ids
	}
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// RunAnalysis runs n random-demand trials and aggregates them.
func (o *Orchestrator) RunAnalysis(ctx context.Context, n int) (*Result, error) {
	return o.run(ctx, ModeRandom, func(r *simulation.Runner, runID string) ([]*domain.TrialResult, error) {
		return r.RunTrials(ctx, runID, n)
	})
}

// RunFlights runs one trial per historical flight and aggregates them.
func (o *Orchestrator) RunFlights(ctx context.Context, flightIDs []int64) (*Result, error) {
	return o.run(ctx, ModeHistorical, func(r *simulation.Runner, runID string) ([]*domain.TrialResult, error) {
		return r.RunFlights(ctx, runID, flightIDs)
	})
}

// ReplayRunner returns a runner configured like the runs of mode but without
// stores or observers, for re-simulating stored trials.
func (o *Orchestrator) ReplayRunner(mode string) (*simulation.Runner, error) {
	return o.newRunner(mode, nil, nil, nil)
}

func (o *Orchestrator) newRunner(
	mode string,
	trials storage.TrialResultStore,
	days storage.DayRecordStore,
	observer func(*domain.TrialResult),
) (*simulation.Runner, error) {
	var (
		factory demand.Factory
		horizon int
		err     error
	)
	switch mode {
	case ModeRandom:
		factory, err = demand.NewRandomFactory(o.opts.Fallback, o.opts.Seed)
		horizon = o.opts.HorizonDays
	case ModeHistorical:
		factory, err = demand.NewHistoricalFactory(o.opts.View, o.opts.Fallback, o.opts.Seed, o.logger)
		horizon = o.HistoricalHorizon()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}

	runner, err := simulation.NewRunner(simulation.RunnerOptions{
		Model:          o.opts.Model,
		DemandFactory:  factory,
		SeatsTotal:     o.opts.SeatsTotal,
		HorizonDays:    horizon,
		Workers:        o.opts.Workers,
		TrialStore:     trials,
		DayRecordStore: days,
		Observer:       observer,
		Logger:         o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure runner: %w", err)
	}
	return runner, nil
}

func (o *Orchestrator) run(
	ctx context.Context,
	mode string,
	simulate func(*simulation.Runner, string) ([]*domain.TrialResult, error),
) (res *Result, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		observability.RecordAnalysisRun(mode, status, time.Since(start).Seconds())
	}()

	runID := o.opts.NewRunID()
	runner, err := o.newRunner(mode, o.opts.TrialStore, o.opts.DayRecordStore, o.observer(runID))
	if err != nil {
		return nil, err
	}

	// Phase 1: Simulation (persists trials and day records)
	o.logger.Printf("run %s: simulating %s trials (policy %s, %d seats)",
		runID, mode, runner.PolicyID(), o.opts.SeatsTotal)
	trials, err := simulate(runner, runID)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	// Phase 2: Aggregation from stored trials
	aggregator := metrics.NewAggregator(o.opts.TrialStore, o.opts.AggregateStore)
	stats, err := aggregator.ComputeAndStore(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}
	if o.opts.OnRun != nil {
		o.opts.OnRun(stats)
	}

	observability.MarkAnalysisSuccess(time.Now().Unix())
	o.logger.Printf("run %s: %d trials, mean revenue %.2f, load factor %.1f%%",
		runID, stats.TrialCount, stats.RevenueMean, stats.LoadFactorMean*100)

	return &Result{
		RunID:     runID,
		Mode:      mode,
		PolicyID:  runner.PolicyID(),
		Trials:    trials,
		Summaries: metrics.Summaries(trials),
		Stats:     stats,
		Duration:  time.Since(start),
	}, nil
}

func (o *Orchestrator) observer(runID string) func(*domain.TrialResult) {
	if o.opts.OnTrial == nil {
		return nil
	}
	return func(t *domain.TrialResult) {
		o.opts.OnTrial(runID, metrics.Summarize(t))
	}
}
