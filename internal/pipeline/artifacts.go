// Package pipeline writes the report artifacts of a completed analysis run.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/reporting"
	"airline-pricing-lab/internal/storage"
)

// GeneratorVersion is recorded in every report.
const GeneratorVersion = "1.0.0"

// Artifact file names inside a run directory.
const (
	ReportFile    = "REPORT.md"
	TrialsCSVFile = "trials.csv"
	DaysCSVFile   = "days.csv"
)

// Artifacts lists the files written for one run.
type Artifacts struct {
	Dir        string
	ReportPath string
	TrialsPath string
	DaysPath   string
	Report     *reporting.Report
}

// ReportPipeline renders a stored run to <outputDir>/<runID>/.
type ReportPipeline struct {
	reportGen     *reporting.Generator
	dayStore      storage.DayRecordStore // optional; the stored trial trace is used when nil
	outputDir     string
	clock         func() time.Time
	replayCommand string
}

// NewReportPipeline creates a new pipeline.
func NewReportPipeline(
	trialStore storage.TrialResultStore,
	dayStore storage.DayRecordStore,
	aggStore storage.AggregateStore,
	outputDir string,
) *ReportPipeline {
	return &ReportPipeline{
		reportGen: reporting.NewGenerator(trialStore, aggStore),
		dayStore:  dayStore,
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithReplayCommand sets the command line recorded for reproducing the run.
func (p *ReportPipeline) WithReplayCommand(cmd string) *ReportPipeline {
	p.replayCommand = cmd
	return p
}

// Run writes REPORT.md, trials.csv and days.csv for runID.
// The run must already be aggregated.
func (p *ReportPipeline) Run(ctx context.Context, runID, mode, policyID string) (*Artifacts, error) {
	report, err := p.reportGen.Generate(ctx, runID, mode, policyID)
	if err != nil {
		return nil, err
	}

	days, err := p.detailDays(ctx, report)
	if err != nil {
		return nil, err
	}

	report.Reproducibility = reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(report.Trials),
		CommitHash:       getGitCommitHash(),
		ReplayCommand:    p.replayCommand,
	}
	if report.Reproducibility.ReplayCommand == "" {
		report.Reproducibility.ReplayCommand = defaultReplayCommand(mode)
	}

	dir := filepath.Join(p.outputDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	out := &Artifacts{
		Dir:        dir,
		ReportPath: filepath.Join(dir, ReportFile),
		TrialsPath: filepath.Join(dir, TrialsCSVFile),
		DaysPath:   filepath.Join(dir, DaysCSVFile),
		Report:     report,
	}

	if err := os.WriteFile(out.ReportPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.TrialsPath, []byte(reporting.RenderTrialsCSV(report.Trials)), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.DaysPath, []byte(reporting.RenderDaysCSV(days)), 0644); err != nil {
		return nil, err
	}
	return out, nil
}

// detailDays reads the detail trial's trace from the day record store when one is configured.
func (p *ReportPipeline) detailDays(ctx context.Context, report *reporting.Report) ([]domain.DayRecord, error) {
	if report.Detail == nil {
		return nil, nil
	}
	if p.dayStore == nil {
		return report.Detail.Days, nil
	}
	days, err := p.dayStore.GetByTrialID(ctx, report.Detail.TrialID)
	if err != nil {
		return nil, fmt.Errorf("load day records of trial %s: %w", report.Detail.TrialID, err)
	}
	return days, nil
}

func defaultReplayCommand(mode string) string {
	if mode == reporting.ModeHistorical {
		return "go run ./cmd/historical"
	}
	return "go run ./cmd/analysis"
}

// computeDataVersion hashes trial ids and revenues so any data change alters the version.
func computeDataVersion(trials []domain.TrialSummary) string {
	parts := make([]string, len(trials))
	for i, t := range trials {
		parts[i] = fmt.Sprintf("%s|%.6f|%.6f", t.TrialID, t.TotalRevenue, t.RemainingSeats)
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte("TRIALS\n"))
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// getGitCommitHash returns current git commit hash or "unknown" if not in git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}
