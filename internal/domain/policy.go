package domain

// PolicyKind tags a fare-class pricing strategy.
// The pricing policy and the settlement model are always selected together by kind.
type PolicyKind string

// Policy kind constants
const (
	PolicyElastic       PolicyKind = "ELASTIC"
	PolicyBusinessClass PolicyKind = "BUSINESS_CLASS"
)

// DemandRange is the closed interval used for uniform random demand draws.
type DemandRange struct {
	Min float64
	Max float64
}

// IsZero reports whether the range was left unset.
func (r DemandRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// Default fallback demand ranges per fare class.
var (
	DemandRangeElastic       = DemandRange{Min: 100, Max: 200}
	DemandRangeBusinessClass = DemandRange{Min: 20, Max: 40}
)
