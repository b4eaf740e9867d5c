package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/reporting"
)

// Report command errors
var (
	ErrMissingRunID       = errors.New("run id is required")
	ErrMissingPostgresDSN = errors.New("postgres dsn is required; in-memory runs are reported by the analysis commands")
	ErrUnknownMode        = errors.New("unknown demand mode")
)

// ReportConfig selects a stored run whose artifacts are regenerated.
type ReportConfig struct {
	RunID         string
	Mode          string
	OutputDir     string
	PostgresDSN   string
	ClickhouseDSN string
}

// LoadReport resolves report configuration from envFile, PRICING_* variables and flags.
func LoadReport(envFile string, args []string) (*ReportConfig, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := ReportConfig{
		Mode:      reporting.ModeRandom,
		OutputDir: Defaults(domain.PolicyElastic).OutputDir,
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	cfg.PostgresDSN = os.Getenv(EnvPrefix + "POSTGRES_DSN")
	cfg.ClickhouseDSN = os.Getenv(EnvPrefix + "CLICKHOUSE_DSN")

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.RunID, "run-id", cfg.RunID, "Analysis run to report on")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Demand mode of the run: random or historical")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Output directory for generated files")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.RunID == "" {
		return nil, ErrMissingRunID
	}
	if cfg.PostgresDSN == "" {
		return nil, ErrMissingPostgresDSN
	}
	if cfg.Mode != reporting.ModeRandom && cfg.Mode != reporting.ModeHistorical {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
	return &cfg, nil
}
