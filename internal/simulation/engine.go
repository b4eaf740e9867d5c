// Package simulation drives day-by-day sales trials and runs them in bulk.
package simulation

import (
	"errors"
	"fmt"
	"math"

	"airline-pricing-lab/internal/demand"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/pricing"
)

// Engine configuration errors. They are reported before any day is simulated.
var (
	ErrInvalidSeatCapacity = errors.New("seat capacity must be positive")
	ErrInvalidHorizon      = errors.New("horizon must be positive")
	ErrNilModel            = errors.New("pricing model is required")
	ErrNilDemandSource     = errors.New("demand source is required")
)

// ErrInvalidDemand is returned when a source yields a non-finite demand level.
var ErrInvalidDemand = errors.New("demand level is not finite")

// State is the lifecycle of a trial.
type State int

const (
	StateReady State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EngineConfig describes one trial.
type EngineConfig struct {
	Model       *pricing.Model
	Demand      demand.Source
	SeatsTotal  int
	HorizonDays int
	FlightID    *int64 // historical flight, nil in random mode
}

// Validate checks preconditions.
func (c EngineConfig) Validate() error {
	if c.Demand == nil {
		return ErrNilDemandSource
	}
	return validateShape(c.Model, c.SeatsTotal, c.HorizonDays)
}

func validateShape(model *pricing.Model, seats, horizon int) error {
	if model == nil {
		return ErrNilModel
	}
	if seats <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeatCapacity, seats)
	}
	if horizon <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}
	return nil
}

// Engine owns the inventory and revenue of a single trial.
// It is not safe for concurrent use; parallel trials each get their own Engine.
type Engine struct {
	cfg EngineConfig

	state          State
	dayIndex       int
	seatsRemaining float64
	revenue        float64
	days           []domain.DayRecord
}

// NewEngine validates cfg and returns an engine in StateReady.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	e.Reset()
	return e, nil
}

// Reset restores full inventory, zero revenue and an empty trace.
func (e *Engine) Reset() {
	e.state = StateReady
	e.dayIndex = 0
	e.seatsRemaining = float64(e.cfg.SeatsTotal)
	e.revenue = 0
	e.days = make([]domain.DayRecord, 0, e.cfg.HorizonDays)
}

func (e *Engine) State() State            { return e.state }
func (e *Engine) DayIndex() int           { return e.dayIndex }
func (e *Engine) SeatsRemaining() float64 { return e.seatsRemaining }
func (e *Engine) Revenue() float64        { return e.revenue }

// Days returns a copy of the trace so far.
func (e *Engine) Days() []domain.DayRecord {
	return append([]domain.DayRecord(nil), e.days...)
}

// SimulateDay prices and sells one day and returns its revenue.
// Once sold out or past the horizon it returns 0 without recording a day.
func (e *Engine) SimulateDay() (float64, error) {
	if e.state == StateDone {
		return 0, nil
	}
	if e.seatsRemaining <= 0 {
		e.state = StateDone
		return 0, nil
	}

	daysLeft := e.cfg.HorizonDays - e.dayIndex
	q := demand.Query{DayIndex: e.dayIndex, DaysBeforeDeparture: daysLeft}
	if e.cfg.FlightID != nil {
		q.FlightID = *e.cfg.FlightID
	}

	obs, err := e.cfg.Demand.Demand(q)
	if err != nil {
		return 0, fmt.Errorf("demand for day %d: %w", e.dayIndex+1, err)
	}
	if math.IsNaN(obs.Level) || math.IsInf(obs.Level, 0) {
		return 0, fmt.Errorf("demand for day %d: %w: %v", e.dayIndex+1, ErrInvalidDemand, obs.Level)
	}
	level := math.Max(0, obs.Level)

	price := e.cfg.Model.Price(daysLeft, e.seatsRemaining, level)
	settled := e.cfg.Model.Settle(price, level, e.seatsRemaining)

	// Quantity is clamped to [0, seats remaining]; revenue follows the clamped quantity.
	qty := math.Min(math.Max(0, settled.Quantity), e.seatsRemaining)
	revenue := price * qty

	e.state = StateRunning
	e.seatsRemaining = math.Max(0, e.seatsRemaining-qty)
	e.revenue += revenue
	e.days = append(e.days, domain.DayRecord{
		Day:             e.dayIndex + 1,
		DaysLeft:        daysLeft,
		DemandLevel:     level,
		Price:           price,
		QuantitySold:    qty,
		Revenue:         revenue,
		SeatsRemaining:  e.seatsRemaining,
		HistoricalPrice: obs.HistoricalPrice,
		DemandFallback:  obs.Fallback,
	})
	e.dayIndex++

	if e.dayIndex >= e.cfg.HorizonDays || e.seatsRemaining <= 0 {
		e.state = StateDone
	}
	return revenue, nil
}

// Run resets the engine and drives it to StateDone.
// The returned result carries no trial or run identity; the Runner assigns it.
func (e *Engine) Run() (*domain.TrialResult, error) {
	e.Reset()
	for e.state != StateDone {
		if _, err := e.SimulateDay(); err != nil {
			return nil, err
		}
	}

	res := &domain.TrialResult{
		Policy:         e.cfg.Model.Kind(),
		SeatsTotal:     e.cfg.SeatsTotal,
		HorizonDays:    e.cfg.HorizonDays,
		TotalRevenue:   e.revenue,
		RemainingSeats: e.seatsRemaining,
		Days:           e.Days(),
	}
	if e.cfg.FlightID != nil {
		id := *e.cfg.FlightID
		res.FlightID = &id
	}
	return res, nil
}
