package storage

import (
	"context"

	"airline-pricing-lab/internal/domain"
)

// TrialResultStore provides access to trial_results storage.
type TrialResultStore interface {
	// Insert adds a new trial. Returns ErrDuplicateKey if trial_id exists.
	Insert(ctx context.Context, t *domain.TrialResult) error

	// InsertBulk adds multiple trials atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trials []*domain.TrialResult) error

	// GetByID retrieves a trial with its daily trace. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, trialID string) (*domain.TrialResult, error)

	// GetByRunID retrieves all trials of an analysis run, ordered by trial_index ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TrialResult, error)
}

// DayRecordStore provides access to day_records storage (daily traces, analytics side).
type DayRecordStore interface {
	// InsertBulk adds the daily trace of a trial. Fails entire batch if the trial already has records.
	InsertBulk(ctx context.Context, trialID string, records []domain.DayRecord) error

	// GetByTrialID retrieves the daily trace of a trial, ordered by day ASC.
	GetByTrialID(ctx context.Context, trialID string) ([]domain.DayRecord, error)
}

// AggregateStore provides access to analysis_aggregates storage.
type AggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, a *domain.AggregateStats) error

	// GetByRunID retrieves the aggregate of a run. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.AggregateStats, error)

	// GetByPolicy retrieves all aggregates computed for a policy.
	GetByPolicy(ctx context.Context, policy domain.PolicyKind) ([]*domain.AggregateStats, error)
}
