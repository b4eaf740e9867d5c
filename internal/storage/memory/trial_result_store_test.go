package memory

import (
	"context"
	"errors"
	"testing"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

func testTrial(id, runID string, index int) *domain.TrialResult {
	hp := 310.0
	return &domain.TrialResult{
		TrialID:      id,
		RunID:        runID,
		TrialIndex:   index,
		Policy:       domain.PolicyElastic,
		SeatsTotal:   100,
		HorizonDays:  2,
		TotalRevenue: 150,
		Days: []domain.DayRecord{
			{Day: 1, DaysLeft: 2, DemandLevel: 150, Price: 75, QuantitySold: 1, Revenue: 75, SeatsRemaining: 99, HistoricalPrice: &hp},
			{Day: 2, DaysLeft: 1, DemandLevel: 150, Price: 75, QuantitySold: 1, Revenue: 75, SeatsRemaining: 98},
		},
		RemainingSeats: 98,
	}
}

func TestTrialResultStore_InsertAndGet(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testTrial("t1", "run1", 0)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TotalRevenue != 150 {
		t.Errorf("TotalRevenue mismatch: got %f, want %f", got.TotalRevenue, 150.0)
	}
	if len(got.Days) != 2 {
		t.Fatalf("Days length mismatch: got %d, want 2", len(got.Days))
	}
	if got.Days[0].HistoricalPrice == nil || *got.Days[0].HistoricalPrice != 310 {
		t.Errorf("HistoricalPrice not preserved: %v", got.Days[0].HistoricalPrice)
	}
}

func TestTrialResultStore_IsolatesCopies(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	trial := testTrial("t1", "run1", 0)
	if err := store.Insert(ctx, trial); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	trial.Days[0].Price = -1
	*trial.Days[0].HistoricalPrice = -1

	got, _ := store.GetByID(ctx, "t1")
	if got.Days[0].Price != 75 {
		t.Errorf("stored trace mutated through caller slice: %f", got.Days[0].Price)
	}
	if *got.Days[0].HistoricalPrice != 310 {
		t.Errorf("stored historical price mutated through caller pointer")
	}

	got.Days[1].Revenue = 0
	again, _ := store.GetByID(ctx, "t1")
	if again.Days[1].Revenue != 75 {
		t.Errorf("stored trace mutated through returned slice")
	}
}

func TestTrialResultStore_DuplicateKey(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testTrial("t1", "run1", 0)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, testTrial("t1", "run1", 0))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTrialResultStore_InvalidInput(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, testTrial("", "run1", 0)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestTrialResultStore_NotFound(t *testing.T) {
	store := NewTrialResultStore()

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTrialResultStore_InsertBulk(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	trials := []*domain.TrialResult{
		testTrial("t3", "run1", 2),
		testTrial("t1", "run1", 0),
		testTrial("t2", "run1", 1),
		testTrial("x1", "run2", 0),
	}
	if err := store.InsertBulk(ctx, trials); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 trials, got %d", len(got))
	}
	for i, tr := range got {
		if tr.TrialIndex != i {
			t.Errorf("Trial %d out of order: index %d", i, tr.TrialIndex)
		}
	}
}

func TestTrialResultStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	trials := []*domain.TrialResult{
		testTrial("t1", "run1", 0),
		testTrial("t1", "run1", 1),
	}
	err := store.InsertBulk(ctx, trials)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByRunID(ctx, "run1")
	if len(got) != 0 {
		t.Errorf("Expected no trials after failed batch, got %d", len(got))
	}
}
