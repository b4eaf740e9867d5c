package metrics

import (
	"context"
	"errors"
	"fmt"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/observability"
	"airline-pricing-lab/internal/storage"
)

// ErrNoTrials is returned when no trials are available for aggregation.
var ErrNoTrials = errors.New("no trials available for aggregation")

// Compute reduces trials into aggregate statistics. It does not modify its input.
// Returns ErrNoTrials for an empty slice.
func Compute(runID string, trials []*domain.TrialResult) (*domain.AggregateStats, error) {
	if len(trials) == 0 {
		return nil, ErrNoTrials
	}
	agg := computeFromTrials(trials)
	agg.RunID = runID
	observability.RecordAggregateComputed()
	return agg, nil
}

// Aggregator computes run aggregates from stored trials.
type Aggregator struct {
	trialStore storage.TrialResultStore
	aggStore   storage.AggregateStore
}

// NewAggregator creates a new metrics aggregator. aggStore may be nil when
// only ComputeAggregate is used.
func NewAggregator(trialStore storage.TrialResultStore, aggStore storage.AggregateStore) *Aggregator {
	return &Aggregator{
		trialStore: trialStore,
		aggStore:   aggStore,
	}
}

// ComputeAggregate loads every trial of runID and computes its statistics.
// Returns ErrNoTrials if the run has no stored trials.
func (a *Aggregator) ComputeAggregate(ctx context.Context, runID string) (*domain.AggregateStats, error) {
	trials, err := a.trialStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trials of run %s: %w", runID, err)
	}
	return Compute(runID, trials)
}

// ComputeAndStore computes and persists the aggregate of runID.
// Returns storage.ErrDuplicateKey if the run was already aggregated (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, runID string) (*domain.AggregateStats, error) {
	agg, err := a.ComputeAggregate(ctx, runID)
	if err != nil {
		return nil, err
	}
	if a.aggStore == nil {
		return agg, nil
	}
	if err := a.aggStore.Insert(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}
