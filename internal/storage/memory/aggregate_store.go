package memory

import (
	"context"
	"sort"
	"sync"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AggregateStats // keyed by run_id
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		data: make(map[string]*domain.AggregateStats),
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
func (s *AggregateStore) Insert(_ context.Context, a *domain.AggregateStats) error {
	if a == nil || a.RunID == "" || a.Policy == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.RunID] = cloneAggregate(a)
	return nil
}

// GetByRunID retrieves the aggregate of a run. Returns ErrNotFound if not exists.
func (s *AggregateStore) GetByRunID(_ context.Context, runID string) (*domain.AggregateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneAggregate(a), nil
}

// GetByPolicy retrieves all aggregates for a policy, ordered by run_id.
func (s *AggregateStore) GetByPolicy(_ context.Context, policy domain.PolicyKind) ([]*domain.AggregateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AggregateStats
	for _, a := range s.data {
		if a.Policy == policy {
			result = append(result, cloneAggregate(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.AggregateStore = (*AggregateStore)(nil)
