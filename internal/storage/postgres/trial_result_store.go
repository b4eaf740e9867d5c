package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// TrialResultStore implements storage.TrialResultStore using PostgreSQL.
// The daily trace is kept in a JSONB column so a trial round-trips in one row.
type TrialResultStore struct {
	pool *Pool
}

// NewTrialResultStore creates a new TrialResultStore.
func NewTrialResultStore(pool *Pool) *TrialResultStore {
	return &TrialResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrialResultStore = (*TrialResultStore)(nil)

const insertTrialQuery = `
	INSERT INTO trial_results (
		trial_id, run_id, trial_index, flight_id, policy,
		seats_total, horizon_days, total_revenue, remaining_seats, days
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10
	)
`

const selectTrialColumns = `
	SELECT
		trial_id, run_id, trial_index, flight_id, policy,
		seats_total, horizon_days, total_revenue, remaining_seats, days
	FROM trial_results
`

// dayRecordJSON is the JSONB layout of one DayRecord.
type dayRecordJSON struct {
	Day             int      `json:"day"`
	DaysLeft        int      `json:"days_left"`
	DemandLevel     float64  `json:"demand_level"`
	Price           float64  `json:"price"`
	QuantitySold    float64  `json:"quantity_sold"`
	Revenue         float64  `json:"revenue"`
	SeatsRemaining  float64  `json:"seats_remaining"`
	HistoricalPrice *float64 `json:"historical_price,omitempty"`
	DemandFallback  bool     `json:"demand_fallback,omitempty"`
}

func encodeDays(days []domain.DayRecord) ([]byte, error) {
	out := make([]dayRecordJSON, len(days))
	for i, d := range days {
		out[i] = dayRecordJSON(d)
	}
	return json.Marshal(out)
}

func decodeDays(data []byte) ([]domain.DayRecord, error) {
	var in []dayRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	days := make([]domain.DayRecord, len(in))
	for i, d := range in {
		days[i] = domain.DayRecord(d)
	}
	return days, nil
}

func trialArgs(t *domain.TrialResult) ([]any, error) {
	days, err := encodeDays(t.Days)
	if err != nil {
		return nil, fmt.Errorf("encode days of trial %s: %w", t.TrialID, err)
	}
	return []any{
		t.TrialID, t.RunID, t.TrialIndex, t.FlightID, string(t.Policy),
		t.SeatsTotal, t.HorizonDays, t.TotalRevenue, t.RemainingSeats, days,
	}, nil
}

// Insert adds a new trial. Returns ErrDuplicateKey if trial_id exists.
func (s *TrialResultStore) Insert(ctx context.Context, t *domain.TrialResult) (err error) {
	if t == nil || t.TrialID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_trial", start, err) }(time.Now())

	args, err := trialArgs(t)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, insertTrialQuery, args...)
	return mapError("insert trial result", err)
}

// InsertBulk adds multiple trials atomically. Fails entire batch on any duplicate.
func (s *TrialResultStore) InsertBulk(ctx context.Context, trials []*domain.TrialResult) (err error) {
	if len(trials) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_trials_bulk", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trials {
		if t == nil || t.TrialID == "" {
			return storage.ErrInvalidInput
		}
		args, err := trialArgs(t)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertTrialQuery, args...); err != nil {
			return mapError("insert trial result in bulk", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a trial by its ID. Returns ErrNotFound if not exists.
func (s *TrialResultStore) GetByID(ctx context.Context, trialID string) (t *domain.TrialResult, err error) {
	defer func(start time.Time) { observe("get_trial", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx, selectTrialColumns+` WHERE trial_id = $1`, trialID)
	t, err = scanTrialResult(row)
	if err != nil {
		return nil, mapError("get trial result by id", err)
	}
	return t, nil
}

// GetByRunID retrieves all trials of a run, ordered by trial_index ASC.
func (s *TrialResultStore) GetByRunID(ctx context.Context, runID string) (trials []*domain.TrialResult, err error) {
	defer func(start time.Time) { observe("get_trials_by_run", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, selectTrialColumns+` WHERE run_id = $1 ORDER BY trial_index ASC, trial_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get trial results by run id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrialResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trial result row: %w", err)
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial result rows: %w", err)
	}
	return trials, nil
}

// scanTrialResult scans a single row into a TrialResult.
func scanTrialResult(row pgx.Row) (*domain.TrialResult, error) {
	var (
		t      domain.TrialResult
		policy string
		days   []byte
	)

	err := row.Scan(
		&t.TrialID, &t.RunID, &t.TrialIndex, &t.FlightID, &policy,
		&t.SeatsTotal, &t.HorizonDays, &t.TotalRevenue, &t.RemainingSeats, &days,
	)
	if err != nil {
		return nil, err
	}

	t.Policy = domain.PolicyKind(policy)
	t.Days, err = decodeDays(days)
	if err != nil {
		return nil, fmt.Errorf("decode days of trial %s: %w", t.TrialID, err)
	}
	return &t, nil
}
