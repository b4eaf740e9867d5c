// Package demand supplies per-day demand levels to the simulation engine.
package demand

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"

	"airline-pricing-lab/internal/dataset"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/observability"
)

// Errors returned by demand sources.
var (
	ErrNoDemandSource     = errors.New("no dataset and no fallback demand range configured")
	ErrInvalidDemandRange = errors.New("demand range requires 0 <= Min <= Max")
)

// Query identifies the day being priced.
type Query struct {
	FlightID            int64
	DayIndex            int // 0-based
	DaysBeforeDeparture int // horizon - DayIndex
}

// Observation is the demand for one day.
type Observation struct {
	Level           float64
	HistoricalPrice *float64
	Fallback        bool
}

// Source supplies demand levels. Implementations are not safe for concurrent use;
// each trial owns its own Source.
type Source interface {
	Demand(q Query) (Observation, error)
}

// Factory creates the Source for one trial.
type Factory func(trialIndex int) (Source, error)

// ValidateRange checks a fallback range.
func ValidateRange(r domain.DemandRange) error {
	if r.Min < 0 || r.Min > r.Max {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidDemandRange, r.Min, r.Max)
	}
	return nil
}

// RandomSource draws demand uniformly from a range using an injected generator.
type RandomSource struct {
	rng  *rand.Rand
	span domain.DemandRange
}

// NewRandomSource creates a RandomSource seeded with seed.
func NewRandomSource(r domain.DemandRange, seed int64) (*RandomSource, error) {
	if err := ValidateRange(r); err != nil {
		return nil, err
	}
	return &RandomSource{
		rng:  rand.New(rand.NewSource(seed)),
		span: r,
	}, nil
}

// Demand returns a uniform draw in [Min, Max).
func (s *RandomSource) Demand(_ Query) (Observation, error) {
	return Observation{Level: s.draw()}, nil
}

func (s *RandomSource) draw() float64 {
	return s.span.Min + s.rng.Float64()*(s.span.Max-s.span.Min)
}

// HistoricalSource looks demand up in a class-filtered dataset view and falls back
// to a random draw when no row matches or the dataset is unavailable.
type HistoricalSource struct {
	view      *dataset.View
	fallback  *RandomSource
	logger    *log.Logger
	fallbacks int
}

// NewHistoricalSource creates a HistoricalSource. Either view or fallback may be nil, not both.
func NewHistoricalSource(view *dataset.View, fallback *RandomSource, logger *log.Logger) (*HistoricalSource, error) {
	if view == nil && fallback == nil {
		return nil, ErrNoDemandSource
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &HistoricalSource{
		view:     view,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Demand returns the dataset demand for (flight, days before departure).
func (s *HistoricalSource) Demand(q Query) (Observation, error) {
	fd, ok := s.view.GetFlightData(q.FlightID, q.DaysBeforeDeparture)
	if ok && validLevel(fd.Demand) {
		obs := Observation{Level: fd.Demand, HistoricalPrice: fd.Price}
		if fd.Price != nil && !validLevel(*fd.Price) {
			obs.HistoricalPrice = nil
		}
		return obs, nil
	}
	if ok {
		s.logger.Printf("invalid demand %v for flight %d at %d days before departure, using fallback demand",
			fd.Demand, q.FlightID, q.DaysBeforeDeparture)
	}

	if s.fallback == nil {
		return Observation{}, fmt.Errorf("flight %d day %d: %w", q.FlightID, q.DaysBeforeDeparture, ErrNoDemandSource)
	}

	s.fallbacks++
	if s.view != nil && !ok {
		s.logger.Printf("no data for flight %d at %d days before departure, using fallback demand",
			q.FlightID, q.DaysBeforeDeparture)
	}
	observability.RecordDemandFallback(s.view != nil)

	return Observation{Level: s.fallback.draw(), Fallback: true}, nil
}

func validLevel(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Fallbacks returns how many lookups used the fallback range.
func (s *HistoricalSource) Fallbacks() int {
	return s.fallbacks
}

// NewRandomFactory returns a Factory producing independently seeded random sources.
// Trial i is seeded with baseSeed+i so runs are reproducible regardless of scheduling.
func NewRandomFactory(r domain.DemandRange, baseSeed int64) (Factory, error) {
	if r.IsZero() {
		return nil, ErrNoDemandSource
	}
	if err := ValidateRange(r); err != nil {
		return nil, err
	}
	return func(trialIndex int) (Source, error) {
		return NewRandomSource(r, baseSeed+int64(trialIndex))
	}, nil
}

// NewHistoricalFactory returns a Factory sharing view across trials.
// A zero fallback range disables the fallback.
func NewHistoricalFactory(view *dataset.View, fallback domain.DemandRange, baseSeed int64, logger *log.Logger) (Factory, error) {
	hasFallback := !fallback.IsZero()
	if view == nil && !hasFallback {
		return nil, ErrNoDemandSource
	}
	if hasFallback {
		if err := ValidateRange(fallback); err != nil {
			return nil, err
		}
	}
	if view == nil && logger != nil {
		logger.Printf("dataset unavailable, all demand drawn from [%v, %v]", fallback.Min, fallback.Max)
	}

	return func(trialIndex int) (Source, error) {
		var fb *RandomSource
		if hasFallback {
			var err error
			fb, err = NewRandomSource(fallback, baseSeed+int64(trialIndex))
			if err != nil {
				return nil, err
			}
		}
		return NewHistoricalSource(view, fb, logger)
	}, nil
}
