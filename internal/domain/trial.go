package domain

// DayRecord is one simulated sales day. Records are append-only.
type DayRecord struct {
	Day             int      // 1-based day number within the trial
	DaysLeft        int      // days before departure when the day was priced
	DemandLevel     float64  // demand proxy, not currency
	Price           float64  // price chosen by the policy
	QuantitySold    float64  // seats sold, 0 <= q <= seats remaining before the day
	Revenue         float64  // Price * QuantitySold
	SeatsRemaining  float64  // seats remaining after the day
	HistoricalPrice *float64 // dataset price when demand came from a historical row
	DemandFallback  bool     // demand was drawn from the fallback range
}

// TrialResult is the outcome of one complete trial.
// Corresponds to trial_results table.
type TrialResult struct {
	TrialID        string // deterministic hash
	RunID          string // analysis run
	TrialIndex     int
	FlightID       *int64 // set when driven by historical data
	Policy         PolicyKind
	SeatsTotal     int
	HorizonDays    int
	TotalRevenue   float64
	RemainingSeats float64
	Days           []DayRecord // daily trace, len <= HorizonDays
}

// TrialSummary is the per-trial derived view used by reports.
type TrialSummary struct {
	TrialID            string
	TrialIndex         int
	FlightID           *int64
	TotalRevenue       float64
	RemainingSeats     float64
	TotalSales         float64
	AvgPrice           float64
	AvgDemand          float64
	LoadFactor         float64
	OpportunityCost    float64
	DaysSimulated      int
	FallbackDemandDays int
}
