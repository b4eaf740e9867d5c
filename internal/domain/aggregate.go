package domain

// AggregateStats holds cross-trial statistics for one analysis run.
// Corresponds to analysis_aggregates table.
type AggregateStats struct {
	RunID       string
	Policy      PolicyKind
	TrialCount  int
	SeatsTotal  int
	HorizonDays int

	// Revenue
	RevenueMean   float64
	RevenueStddev float64
	RevenueMin    float64
	RevenueMax    float64

	// Capacity utilization
	UnsoldSeatsMean  float64
	LoadFactorMean   float64
	LoadFactorStddev float64

	// Loss analysis
	OpportunityCostMean float64
	OpportunityCostMax  float64

	// Risk
	RevenueP5         float64
	ValueAtRisk5      float64  // RevenueMean - RevenueP5
	RevenueVolatility *float64 // stddev / mean, nil when mean revenue is 0

	// Best performing trial
	BestTrialID    string
	BestRevenue    float64
	BestLoadFactor float64
	BestAvgPrice   float64

	// Weekly pattern, only when HorizonDays is a multiple of 7
	WeeklyAvailable bool
	WeeklyPrices    []WeeklyPrice
}

// WeeklyPrice is the mean price over one 7-day block across all trials.
type WeeklyPrice struct {
	Week     int // 1-based
	AvgPrice float64
	Samples  int
}
