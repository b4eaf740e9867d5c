package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"airline-pricing-lab/internal/demand"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/idhash"
	"airline-pricing-lab/internal/observability"
	"airline-pricing-lab/internal/pricing"
	"airline-pricing-lab/internal/storage"
)

// Runner errors
var (
	ErrInvalidTrialCount = errors.New("trial count must be positive")
	ErrNoFlights         = errors.New("no flight ids to simulate")
	ErrNilDemandFactory  = errors.New("demand factory is required")
)

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Model         *pricing.Model
	DemandFactory demand.Factory
	SeatsTotal    int
	HorizonDays   int
	Workers       int // <= 0 means runtime.NumCPU()

	// Optional sinks. Stores must be safe for concurrent use.
	TrialStore     storage.TrialResultStore
	DayRecordStore storage.DayRecordStore
	// Observer is called from worker goroutines after each trial is persisted.
	Observer func(*domain.TrialResult)

	Logger *log.Logger
}

// Runner executes independent trials, each with its own Engine and demand source.
type Runner struct {
	opts   RunnerOptions
	logger *log.Logger
}

// NewRunner validates options and creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DemandFactory == nil {
		return nil, ErrNilDemandFactory
	}
	if err := validateShape(opts.Model, opts.SeatsTotal, opts.HorizonDays); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{opts: opts, logger: logger}, nil
}

// PolicyID returns the identifier of the configured pricing model.
func (r *Runner) PolicyID() string {
	return r.opts.Model.ID()
}

// RunTrial simulates, records and persists one trial.
func (r *Runner) RunTrial(ctx context.Context, runID string, trialIndex int, flightID *int64) (*domain.TrialResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := r.opts.DemandFactory(trialIndex)
	if err != nil {
		return nil, fmt.Errorf("demand source for trial %d: %w", trialIndex, err)
	}

	engine, err := NewEngine(EngineConfig{
		Model:       r.opts.Model,
		Demand:      src,
		SeatsTotal:  r.opts.SeatsTotal,
		HorizonDays: r.opts.HorizonDays,
		FlightID:    flightID,
	})
	if err != nil {
		return nil, err
	}

	res, err := engine.Run()
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", trialIndex, err)
	}
	res.RunID = runID
	res.TrialIndex = trialIndex
	res.TrialID = idhash.ComputeTrialID(runID, r.opts.Model.ID(), trialIndex, flightID)

	loadFactor := (float64(res.SeatsTotal) - res.RemainingSeats) / float64(res.SeatsTotal)
	observability.RecordTrial(string(res.Policy), len(res.Days), res.TotalRevenue, loadFactor, res.RemainingSeats <= 0)

	if err := r.persist(ctx, res); err != nil {
		return nil, err
	}
	if r.opts.Observer != nil {
		r.opts.Observer(res)
	}
	return res, nil
}

// RunTrials runs n random-demand trials in parallel. Results are ordered by trial index.
// The first failing trial cancels the rest.
func (r *Runner) RunTrials(ctx context.Context, runID string, n int) ([]*domain.TrialResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrialCount, n)
	}
	return r.runAll(ctx, runID, n, func(int) *int64 { return nil })
}

// RunFlights runs one trial per historical flight, in the given order.
func (r *Runner) RunFlights(ctx context.Context, runID string, flightIDs []int64) ([]*domain.TrialResult, error) {
	if len(flightIDs) == 0 {
		return nil, ErrNoFlights
	}
	return r.runAll(ctx, runID, len(flightIDs), func(i int) *int64 {
		id := flightIDs[i]
		return &id
	})
}

func (r *Runner) runAll(ctx context.Context, runID string, n int, flightFor func(int) *int64) ([]*domain.TrialResult, error) {
	results := make([]*domain.TrialResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := r.RunTrial(gctx, runID, i, flightFor(i))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Printf("run %s: %d trials of %s complete", runID, n, r.opts.Model.ID())
	return results, nil
}

func (r *Runner) persist(ctx context.Context, res *domain.TrialResult) error {
	if r.opts.TrialStore != nil {
		if err := r.opts.TrialStore.Insert(ctx, res); err != nil {
			return fmt.Errorf("store trial %d: %w", res.TrialIndex, err)
		}
	}
	if r.opts.DayRecordStore != nil {
		if err := r.opts.DayRecordStore.InsertBulk(ctx, res.TrialID, res.Days); err != nil {
			return fmt.Errorf("store day records of trial %d: %w", res.TrialIndex, err)
		}
	}
	return nil
}
