package reporting

import (
	"context"
	"fmt"
	"time"

	"airline-pricing-lab/internal/observability"
	"airline-pricing-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	trialStore storage.TrialResultStore
	aggStore   storage.AggregateStore
	now        func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(trialStore storage.TrialResultStore, aggStore storage.AggregateStore) *Generator {
	return &Generator{
		trialStore: trialStore,
		aggStore:   aggStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads the aggregate and trials of runID.
// Returns storage.ErrNotFound if the run has not been aggregated.
func (g *Generator) Generate(ctx context.Context, runID, mode, policyID string) (*Report, error) {
	stats, err := g.aggStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load aggregate of run %s: %w", runID, err)
	}

	trials, err := g.trialStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trials of run %s: %w", runID, err)
	}

	observability.RecordReportGenerated()
	return NewReport(g.now(), mode, policyID, stats, trials), nil
}
