package memory

import (
	"context"
	"sort"
	"sync"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// DayRecordStore is an in-memory implementation of storage.DayRecordStore.
type DayRecordStore struct {
	mu   sync.RWMutex
	data map[string][]domain.DayRecord // keyed by trial_id
}

// NewDayRecordStore creates a new in-memory day record store.
func NewDayRecordStore() *DayRecordStore {
	return &DayRecordStore{
		data: make(map[string][]domain.DayRecord),
	}
}

// InsertBulk stores the daily trace of a trial.
// Returns ErrDuplicateKey if the trial already has records or the batch repeats a day.
func (s *DayRecordStore) InsertBulk(_ context.Context, trialID string, records []domain.DayRecord) error {
	if trialID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[trialID]; exists {
		return storage.ErrDuplicateKey
	}

	days := make(map[int]struct{}, len(records))
	for _, r := range records {
		if r.Day <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := days[r.Day]; exists {
			return storage.ErrDuplicateKey
		}
		days[r.Day] = struct{}{}
	}

	stored := cloneDays(records)
	sort.Slice(stored, func(i, j int) bool { return stored[i].Day < stored[j].Day })
	s.data[trialID] = stored
	return nil
}

// GetByTrialID retrieves the daily trace of a trial, ordered by day ASC.
// Returns an empty slice when the trial has no records.
func (s *DayRecordStore) GetByTrialID(_ context.Context, trialID string) ([]domain.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneDays(s.data[trialID]), nil
}

var _ storage.DayRecordStore = (*DayRecordStore)(nil)
