// Package verification replays stored trials and checks that re-simulation
// reproduces them. Trials are deterministic given run id, trial index, flight
// and seed, so any divergence means stored data or configuration changed.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/storage"
)

// FloatTolerance is the absolute tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// ErrTrialNotFound is returned when trial ID doesn't exist.
var ErrTrialNotFound = errors.New("trial not found")

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single trial.
type VerificationResult struct {
	TrialID         string
	Match           bool
	Divergences     []FieldDivergence
	StoredRevenue   float64
	ReplayedRevenue float64
}

// VerificationReport contains results for a whole run.
type VerificationReport struct {
	RunID           string
	TotalTrials     int
	MatchedTrials   int
	DivergentTrials int
	Results         []VerificationResult
}

// Replayer re-simulates one trial. *simulation.Runner satisfies it when built
// without stores.
type Replayer interface {
	RunTrial(ctx context.Context, runID string, trialIndex int, flightID *int64) (*domain.TrialResult, error)
}

// TrialVerifier compares stored trials against a replay.
type TrialVerifier struct {
	trialStore storage.TrialResultStore
	replayer   Replayer
}

// NewTrialVerifier creates a new TrialVerifier.
func NewTrialVerifier(trialStore storage.TrialResultStore, replayer Replayer) *TrialVerifier {
	return &TrialVerifier{trialStore: trialStore, replayer: replayer}
}

// VerifyTrial verifies a single stored trial by ID.
func (v *TrialVerifier) VerifyTrial(ctx context.Context, trialID string) (*VerificationResult, error) {
	stored, err := v.trialStore.GetByID(ctx, trialID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTrialNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifyRun verifies every stored trial of runID. Replay errors are recorded
// as divergences rather than returned.
func (v *TrialVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	trials, err := v.trialStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:       runID,
		TotalTrials: len(trials),
		Results:     make([]VerificationResult, 0, len(trials)),
	}

	for _, stored := range trials {
		result, err := v.verify(ctx, stored)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			result = &VerificationResult{
				TrialID:       stored.TrialID,
				StoredRevenue: stored.TotalRevenue,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			}
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedTrials++
		} else {
			report.DivergentTrials++
		}
	}

	return report, nil
}

func (v *TrialVerifier) verify(ctx context.Context, stored *domain.TrialResult) (*VerificationResult, error) {
	replayed, err := v.replayer.RunTrial(ctx, stored.RunID, stored.TrialIndex, stored.FlightID)
	if err != nil {
		return nil, fmt.Errorf("replay trial %s: %w", stored.TrialID, err)
	}

	divergences := CompareTrials(stored, replayed)
	return &VerificationResult{
		TrialID:         stored.TrialID,
		Match:           len(divergences) == 0,
		Divergences:     divergences,
		StoredRevenue:   stored.TotalRevenue,
		ReplayedRevenue: replayed.TotalRevenue,
	}, nil
}

// CompareTrials compares two trial results and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareTrials(stored, replayed *domain.TrialResult) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.TrialID != replayed.TrialID {
		add("TrialID", stored.TrialID, replayed.TrialID)
	}
	if stored.Policy != replayed.Policy {
		add("Policy", stored.Policy, replayed.Policy)
	}
	if stored.SeatsTotal != replayed.SeatsTotal {
		add("SeatsTotal", stored.SeatsTotal, replayed.SeatsTotal)
	}
	if stored.HorizonDays != replayed.HorizonDays {
		add("HorizonDays", stored.HorizonDays, replayed.HorizonDays)
	}
	if !int64PtrEquals(stored.FlightID, replayed.FlightID) {
		add("FlightID", stored.FlightID, replayed.FlightID)
	}
	if !floatEquals(stored.TotalRevenue, replayed.TotalRevenue) {
		add("TotalRevenue", stored.TotalRevenue, replayed.TotalRevenue)
	}
	if !floatEquals(stored.RemainingSeats, replayed.RemainingSeats) {
		add("RemainingSeats", stored.RemainingSeats, replayed.RemainingSeats)
	}

	if len(stored.Days) != len(replayed.Days) {
		add("Days", len(stored.Days), len(replayed.Days))
		return divergences
	}
	for i := range stored.Days {
		s, r := stored.Days[i], replayed.Days[i]
		prefix := fmt.Sprintf("Days[%d].", i)
		if !floatEquals(s.DemandLevel, r.DemandLevel) {
			add(prefix+"DemandLevel", s.DemandLevel, r.DemandLevel)
		}
		if !floatEquals(s.Price, r.Price) {
			add(prefix+"Price", s.Price, r.Price)
		}
		if !floatEquals(s.QuantitySold, r.QuantitySold) {
			add(prefix+"QuantitySold", s.QuantitySold, r.QuantitySold)
		}
		if !floatEquals(s.Revenue, r.Revenue) {
			add(prefix+"Revenue", s.Revenue, r.Revenue)
		}
		if s.DemandFallback != r.DemandFallback {
			add(prefix+"DemandFallback", s.DemandFallback, r.DemandFallback)
		}
	}

	return divergences
}

// floatEquals compares two floats with tolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

func int64PtrEquals(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
