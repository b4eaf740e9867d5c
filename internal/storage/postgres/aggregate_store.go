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

// AggregateStore implements storage.AggregateStore using PostgreSQL.
type AggregateStore struct {
	pool *Pool
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(pool *Pool) *AggregateStore {
	return &AggregateStore{pool: pool}
}

var _ storage.AggregateStore = (*AggregateStore)(nil)

const selectAggregateColumns = `
	SELECT
		run_id, policy, trial_count, seats_total, horizon_days,
		revenue_mean, revenue_stddev, revenue_min, revenue_max,
		unsold_seats_mean, load_factor_mean, load_factor_stddev,
		opportunity_cost_mean, opportunity_cost_max,
		revenue_p5, value_at_risk_5, revenue_volatility,
		best_trial_id, best_revenue, best_load_factor, best_avg_price,
		weekly_available, weekly_prices
	FROM analysis_aggregates
`

type weeklyPriceJSON struct {
	Week     int     `json:"week"`
	AvgPrice float64 `json:"avg_price"`
	Samples  int     `json:"samples"`
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
func (s *AggregateStore) Insert(ctx context.Context, a *domain.AggregateStats) (err error) {
	if a == nil || a.RunID == "" || a.Policy == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_aggregate", start, err) }(time.Now())

	weekly := make([]weeklyPriceJSON, len(a.WeeklyPrices))
	for i, w := range a.WeeklyPrices {
		weekly[i] = weeklyPriceJSON(w)
	}
	weeklyJSON, err := json.Marshal(weekly)
	if err != nil {
		return fmt.Errorf("encode weekly prices: %w", err)
	}

	query := `
		INSERT INTO analysis_aggregates (
			run_id, policy, trial_count, seats_total, horizon_days,
			revenue_mean, revenue_stddev, revenue_min, revenue_max,
			unsold_seats_mean, load_factor_mean, load_factor_stddev,
			opportunity_cost_mean, opportunity_cost_max,
			revenue_p5, value_at_risk_5, revenue_volatility,
			best_trial_id, best_revenue, best_load_factor, best_avg_price,
			weekly_available, weekly_prices
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14,
			$15, $16, $17,
			$18, $19, $20, $21,
			$22, $23
		)
	`

	_, err = s.pool.Exec(ctx, query,
		a.RunID, string(a.Policy), a.TrialCount, a.SeatsTotal, a.HorizonDays,
		a.RevenueMean, a.RevenueStddev, a.RevenueMin, a.RevenueMax,
		a.UnsoldSeatsMean, a.LoadFactorMean, a.LoadFactorStddev,
		a.OpportunityCostMean, a.OpportunityCostMax,
		a.RevenueP5, a.ValueAtRisk5, a.RevenueVolatility,
		a.BestTrialID, a.BestRevenue, a.BestLoadFactor, a.BestAvgPrice,
		a.WeeklyAvailable, weeklyJSON,
	)
	return mapError("insert aggregate", err)
}

// GetByRunID retrieves the aggregate of a run. Returns ErrNotFound if not exists.
func (s *AggregateStore) GetByRunID(ctx context.Context, runID string) (a *domain.AggregateStats, err error) {
	defer func(start time.Time) { observe("get_aggregate", start, err) }(time.Now())

	a, err = scanAggregate(s.pool.QueryRow(ctx, selectAggregateColumns+` WHERE run_id = $1`, runID))
	if err != nil {
		return nil, mapError("get aggregate by run id", err)
	}
	return a, nil
}

// GetByPolicy retrieves all aggregates for a policy, ordered by run_id.
func (s *AggregateStore) GetByPolicy(ctx context.Context, policy domain.PolicyKind) (result []*domain.AggregateStats, err error) {
	defer func(start time.Time) { observe("get_aggregates_by_policy", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, selectAggregateColumns+` WHERE policy = $1 ORDER BY run_id ASC`, string(policy))
	if err != nil {
		return nil, fmt.Errorf("get aggregates by policy: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	return result, nil
}

func scanAggregate(row pgx.Row) (*domain.AggregateStats, error) {
	var (
		a      domain.AggregateStats
		policy string
		weekly []byte
	)

	err := row.Scan(
		&a.RunID, &policy, &a.TrialCount, &a.SeatsTotal, &a.HorizonDays,
		&a.RevenueMean, &a.RevenueStddev, &a.RevenueMin, &a.RevenueMax,
		&a.UnsoldSeatsMean, &a.LoadFactorMean, &a.LoadFactorStddev,
		&a.OpportunityCostMean, &a.OpportunityCostMax,
		&a.RevenueP5, &a.ValueAtRisk5, &a.RevenueVolatility,
		&a.BestTrialID, &a.BestRevenue, &a.BestLoadFactor, &a.BestAvgPrice,
		&a.WeeklyAvailable, &weekly,
	)
	if err != nil {
		return nil, err
	}
	a.Policy = domain.PolicyKind(policy)

	var decoded []weeklyPriceJSON
	if err := json.Unmarshal(weekly, &decoded); err != nil {
		return nil, fmt.Errorf("decode weekly prices of run %s: %w", a.RunID, err)
	}
	if len(decoded) > 0 {
		a.WeeklyPrices = make([]domain.WeeklyPrice, len(decoded))
		for i, w := range decoded {
			a.WeeklyPrices[i] = domain.WeeklyPrice(w)
		}
	}
	return &a, nil
}
