package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

func createTestTrial(trialID, runID string, index int) *domain.TrialResult {
	return &domain.TrialResult{
		TrialID:     trialID,
		RunID:       runID,
		TrialIndex:  index,
		FlightID:    ptr(int64(1042)),
		Policy:      domain.PolicyBusinessClass,
		SeatsTotal:  50,
		HorizonDays: 2,
		Days: []domain.DayRecord{
			{Day: 1, DaysLeft: 2, DemandLevel: 30, Price: 1200, QuantitySold: 25, Revenue: 30000, SeatsRemaining: 25, HistoricalPrice: ptr(1150.0)},
			{Day: 2, DaysLeft: 1, DemandLevel: 25, Price: 1200, QuantitySold: 20, Revenue: 24000, SeatsRemaining: 5, DemandFallback: true},
		},
		TotalRevenue:   54000,
		RemainingSeats: 5,
	}
}

func TestTrialResultStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTrialResultStore(pool)

	trial := createTestTrial("trial-001", "run-1", 0)
	require.NoError(t, store.Insert(ctx, trial))

	got, err := store.GetByID(ctx, "trial-001")
	require.NoError(t, err)

	assert.Equal(t, trial.RunID, got.RunID)
	assert.Equal(t, trial.Policy, got.Policy)
	require.NotNil(t, got.FlightID)
	assert.Equal(t, int64(1042), *got.FlightID)
	assert.InDelta(t, 54000.0, got.TotalRevenue, 1e-9)
	assert.Equal(t, trial.Days, got.Days)
}

func TestTrialResultStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTrialResultStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrial("trial-dup", "run-1", 0)))

	err := store.Insert(ctx, createTestTrial("trial-dup", "run-1", 0))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTrialResultStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTrialResultStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTrialResultStore_InsertBulkAndGetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTrialResultStore(pool)

	trials := []*domain.TrialResult{
		createTestTrial("t-2", "run-bulk", 2),
		createTestTrial("t-0", "run-bulk", 0),
		createTestTrial("t-1", "run-bulk", 1),
	}
	require.NoError(t, store.InsertBulk(ctx, trials))

	got, err := store.GetByRunID(ctx, "run-bulk")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, tr := range got {
		assert.Equal(t, i, tr.TrialIndex)
		assert.Len(t, tr.Days, 2)
	}
}

func TestTrialResultStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTrialResultStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrial("t-existing", "run-a", 0)))

	err := store.InsertBulk(ctx, []*domain.TrialResult{
		createTestTrial("t-new", "run-b", 0),
		createTestTrial("t-existing", "run-b", 1),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-b")
	require.NoError(t, err)
	assert.Empty(t, got)
}
