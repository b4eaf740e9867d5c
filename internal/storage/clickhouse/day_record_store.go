package clickhouse

import (
	"context"
	"fmt"
	"time"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// DayRecordStore implements storage.DayRecordStore using ClickHouse.
// MergeTree does not enforce keys, so append-only semantics rely on an existence check.
type DayRecordStore struct {
	conn *Conn
}

// NewDayRecordStore creates a new DayRecordStore.
func NewDayRecordStore(conn *Conn) *DayRecordStore {
	return &DayRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DayRecordStore = (*DayRecordStore)(nil)

// InsertBulk writes the daily trace of a trial in one batch.
// Returns ErrDuplicateKey if the trial already has records or the batch repeats a day.
func (s *DayRecordStore) InsertBulk(ctx context.Context, trialID string, records []domain.DayRecord) (err error) {
	if trialID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_day_records", start, err) }(time.Now())

	seen := make(map[int]struct{}, len(records))
	for _, r := range records {
		if r.Day <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Day] = struct{}{}
	}

	exists, err := s.exists(ctx, trialID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO day_records (
			trial_id, day, days_left, demand_level, price,
			quantity_sold, revenue, seats_remaining, historical_price, demand_fallback
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			trialID, uint32(r.Day), uint32(r.DaysLeft), r.DemandLevel, r.Price,
			r.QuantitySold, r.Revenue, r.SeatsRemaining, r.HistoricalPrice, r.DemandFallback,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTrialID retrieves the daily trace of a trial, ordered by day ASC.
func (s *DayRecordStore) GetByTrialID(ctx context.Context, trialID string) (records []domain.DayRecord, err error) {
	defer func(start time.Time) { observe("get_day_records", start, err) }(time.Now())

	query := `
		SELECT
			day, days_left, demand_level, price,
			quantity_sold, revenue, seats_remaining, historical_price, demand_fallback
		FROM day_records
		WHERE trial_id = ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, trialID)
	if err != nil {
		return nil, fmt.Errorf("query day records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r             domain.DayRecord
			day, daysLeft uint32
			historical    *float64
		)
		err := rows.Scan(
			&day, &daysLeft, &r.DemandLevel, &r.Price,
			&r.QuantitySold, &r.Revenue, &r.SeatsRemaining, &historical, &r.DemandFallback,
		)
		if err != nil {
			return nil, fmt.Errorf("scan day record: %w", err)
		}
		r.Day = int(day)
		r.DaysLeft = int(daysLeft)
		r.HistoricalPrice = historical
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day records: %w", err)
	}
	return records, nil
}

// exists checks whether a trial already has a stored trace.
func (s *DayRecordStore) exists(ctx context.Context, trialID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM day_records WHERE trial_id = ?`, trialID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
