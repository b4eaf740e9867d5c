package memory

import (
	"context"
	"errors"
	"testing"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

func TestAggregateStore_InsertAndGet(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	vol := 0.12
	agg := &domain.AggregateStats{
		RunID:             "run1",
		Policy:            domain.PolicyBusinessClass,
		TrialCount:        10,
		RevenueMean:       25000,
		RevenueVolatility: &vol,
		WeeklyAvailable:   true,
		WeeklyPrices:      []domain.WeeklyPrice{{Week: 1, AvgPrice: 950, Samples: 70}},
	}
	if err := store.Insert(ctx, agg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	agg.WeeklyPrices[0].AvgPrice = 0
	*agg.RevenueVolatility = 0

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if got.WeeklyPrices[0].AvgPrice != 950 {
		t.Errorf("WeeklyPrices mutated through caller slice: %f", got.WeeklyPrices[0].AvgPrice)
	}
	if got.RevenueVolatility == nil || *got.RevenueVolatility != 0.12 {
		t.Errorf("RevenueVolatility mismatch: %v", got.RevenueVolatility)
	}
}

func TestAggregateStore_DuplicateKey(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	agg := &domain.AggregateStats{RunID: "run1", Policy: domain.PolicyElastic}
	if err := store.Insert(ctx, agg); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, agg); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAggregateStore_NotFound(t *testing.T) {
	store := NewAggregateStore()

	_, err := store.GetByRunID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAggregateStore_GetByPolicy(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	for _, a := range []*domain.AggregateStats{
		{RunID: "b", Policy: domain.PolicyElastic},
		{RunID: "a", Policy: domain.PolicyElastic},
		{RunID: "c", Policy: domain.PolicyBusinessClass},
	} {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert %s failed: %v", a.RunID, err)
		}
	}

	got, err := store.GetByPolicy(ctx, domain.PolicyElastic)
	if err != nil {
		t.Fatalf("GetByPolicy failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 aggregates, got %d", len(got))
	}
	if got[0].RunID != "a" || got[1].RunID != "b" {
		t.Errorf("Aggregates not ordered by run_id: %s, %s", got[0].RunID, got[1].RunID)
	}
}
