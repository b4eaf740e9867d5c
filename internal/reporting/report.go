// Package reporting renders analysis runs as Markdown and CSV.
package reporting

import (
	"time"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/metrics"
)

// Mode names how demand was supplied to a run.
const (
	ModeRandom     = "random"
	ModeHistorical = "historical"
)

// Report is everything rendered for one analysis run.
type Report struct {
	GeneratedAt time.Time
	RunID       string
	PolicyID    string
	Mode        string

	Stats  *domain.AggregateStats
	Trials []domain.TrialSummary // ordered by trial index

	// Detail is the daily trace shown in full, usually the first trial.
	Detail *domain.TrialResult

	Reproducibility ReproducibilityMetadata
}

// ReproducibilityMetadata identifies the inputs needed to regenerate a report.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	DataVersion      string // short hash over trial ids and revenues
	CommitHash       string
	ReplayCommand    string
}

// NewReport assembles a report from completed trials and their aggregate.
// trials must be ordered by trial index; the first one becomes the detail trace.
func NewReport(now time.Time, mode, policyID string, stats *domain.AggregateStats, trials []*domain.TrialResult) *Report {
	r := &Report{
		GeneratedAt: now,
		RunID:       stats.RunID,
		PolicyID:    policyID,
		Mode:        mode,
		Stats:       stats,
		Trials:      metrics.Summaries(trials),
	}
	if len(trials) > 0 {
		r.Detail = trials[0]
	}
	return r
}
