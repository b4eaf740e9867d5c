package memory

import (
	"context"
	"sort"
	"sync"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// TrialResultStore is an in-memory implementation of storage.TrialResultStore.
type TrialResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrialResult // keyed by trial_id
}

// NewTrialResultStore creates a new in-memory trial result store.
func NewTrialResultStore() *TrialResultStore {
	return &TrialResultStore{
		data: make(map[string]*domain.TrialResult),
	}
}

// Insert adds a new trial. Returns ErrDuplicateKey if trial_id exists.
func (s *TrialResultStore) Insert(_ context.Context, t *domain.TrialResult) error {
	if t == nil || t.TrialID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TrialID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[t.TrialID] = cloneTrial(t)
	return nil
}

// InsertBulk adds multiple trials atomically. Fails entire batch on any duplicate.
func (s *TrialResultStore) InsertBulk(_ context.Context, trials []*domain.TrialResult) error {
	if len(trials) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trials))

	for _, t := range trials {
		if t == nil || t.TrialID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TrialID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TrialID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TrialID] = struct{}{}
	}

	for _, t := range trials {
		s.data[t.TrialID] = cloneTrial(t)
	}

	return nil
}

// GetByID retrieves a trial by its ID. Returns ErrNotFound if not exists.
func (s *TrialResultStore) GetByID(_ context.Context, trialID string) (*domain.TrialResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[trialID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneTrial(t), nil
}

// GetByRunID retrieves all trials of a run, ordered by trial_index ASC.
func (s *TrialResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.TrialResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrialResult
	for _, t := range s.data {
		if t.RunID == runID {
			result = append(result, cloneTrial(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TrialIndex != result[j].TrialIndex {
			return result[i].TrialIndex < result[j].TrialIndex
		}
		return result[i].TrialID < result[j].TrialID
	})

	return result, nil
}

var _ storage.TrialResultStore = (*TrialResultStore)(nil)
