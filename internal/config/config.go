// Package config resolves run configuration from defaults, a .env file,
// PRICING_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"airline-pricing-lab/internal/demand"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/pricing"
)

// Validation errors
var (
	ErrInvalidSeatCapacity = errors.New("seat capacity must be positive")
	ErrInvalidHorizon      = errors.New("horizon must be positive")
	ErrInvalidTrialCount   = errors.New("trial count must be positive")
	ErrInvalidFlightCount  = errors.New("flight count must be positive")
	ErrInvalidWorkers      = errors.New("workers must not be negative")
	ErrInvalidInterval     = errors.New("interval must be positive")
	ErrInvalidValue        = errors.New("invalid value")
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PRICING_"

// Config is the resolved configuration shared by all binaries.
type Config struct {
	Policy  domain.PolicyKind
	Seats   int
	Horizon int
	Trials  int
	Flights int
	Seed    int64
	Workers int // 0 means one per CPU

	// Historical data
	DataPath string
	Class    string

	// Fallback demand range
	DemandMin float64
	DemandMax float64

	// Storage; an empty DSN selects the in-memory store
	PostgresDSN   string
	ClickhouseDSN string

	// Output
	OutputDir   string
	JSON        bool
	Verify      bool // replay stored trials after the run
	MetricsAddr string
	Interval    time.Duration
}

// Defaults returns the built-in configuration for a policy kind.
func Defaults(kind domain.PolicyKind) Config {
	cfg := Config{
		Policy:      kind,
		Horizon:     30,
		Trials:      100,
		Flights:     3,
		Seed:        42,
		Class:       "Business",
		OutputDir:   "output",
		MetricsAddr: ":9090",
		Interval:    time.Hour,
	}
	switch kind {
	case domain.PolicyBusinessClass:
		cfg.Seats = 50
		cfg.DemandMin = domain.DemandRangeBusinessClass.Min
		cfg.DemandMax = domain.DemandRangeBusinessClass.Max
	default:
		cfg.Seats = 100
		cfg.DemandMin = domain.DemandRangeElastic.Min
		cfg.DemandMax = domain.DemandRangeElastic.Max
	}
	return cfg
}

// DemandRange returns the configured fallback range.
func (c Config) DemandRange() domain.DemandRange {
	return domain.DemandRange{Min: c.DemandMin, Max: c.DemandMax}
}

// PricingConfig returns the pricing model selection.
// The business-class inventory pressure uses the configured capacity.
func (c Config) PricingConfig() pricing.Config {
	pc := pricing.Config{Kind: c.Policy}
	if c.Policy == domain.PolicyBusinessClass {
		bc := pricing.DefaultBusinessConfig()
		bc.TotalSeats = float64(c.Seats)
		pc.Business = &bc
	}
	return pc
}

// Validate checks the configuration before any trial runs.
func (c Config) Validate() error {
	if _, err := pricing.FromConfig(c.PricingConfig()); err != nil {
		return fmt.Errorf("policy %q: %w", c.Policy, err)
	}
	if c.Seats <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeatCapacity, c.Seats)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHorizon, c.Horizon)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrialCount, c.Trials)
	}
	if c.Flights <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFlightCount, c.Flights)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, c.Interval)
	}
	if err := demand.ValidateRange(c.DemandRange()); err != nil {
		return err
	}
	return nil
}

// DefaultPolicy returns the policy a command runs when none is configured.
// Historical replays price the dataset's business cabin; other commands use elastic pricing.
func DefaultPolicy(name string) string {
	if name == "historical" {
		return "business"
	}
	return "elastic"
}

// Load resolves configuration for the named command using ./.env.
func Load(name string, args []string) (*Config, error) {
	return LoadFrom(".env", name, args)
}

// LoadFrom resolves configuration using envFile. A missing envFile is ignored;
// variables already set in the environment win over the file.
func LoadFrom(envFile, name string, args []string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	fl := newFlags(name)
	if err := fl.fs.Parse(args); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fl.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	policy := DefaultPolicy(name)
	if v, ok := os.LookupEnv(EnvPrefix + "POLICY"); ok && v != "" {
		policy = v
	}
	if set["policy"] {
		policy = fl.policy
	}
	kind, err := pricing.ParseKind(policy)
	if err != nil {
		return nil, fmt.Errorf("policy %q: %w", policy, err)
	}

	cfg := Defaults(kind)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	fl.apply(&cfg, set)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s%s=%q", ErrInvalidValue, EnvPrefix, key, v))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s%s=%q", ErrInvalidValue, EnvPrefix, key, v))
				return
			}
			*dst = f
		}
	}

	integer("SEATS", &cfg.Seats)
	integer("HORIZON", &cfg.Horizon)
	integer("TRIALS", &cfg.Trials)
	integer("FLIGHTS", &cfg.Flights)
	integer("WORKERS", &cfg.Workers)
	float("DEMAND_MIN", &cfg.DemandMin)
	float("DEMAND_MAX", &cfg.DemandMax)
	str("DATA_PATH", &cfg.DataPath)
	str("CLASS", &cfg.Class)
	str("POSTGRES_DSN", &cfg.PostgresDSN)
	str("CLICKHOUSE_DSN", &cfg.ClickhouseDSN)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("METRICS_ADDR", &cfg.MetricsAddr)

	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sSEED=%q", ErrInvalidValue, EnvPrefix, v))
		} else {
			cfg.Seed = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "JSON"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sJSON=%q", ErrInvalidValue, EnvPrefix, v))
		} else {
			cfg.JSON = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "VERIFY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sVERIFY=%q", ErrInvalidValue, EnvPrefix, v))
		} else {
			cfg.Verify = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sINTERVAL=%q", ErrInvalidValue, EnvPrefix, v))
		} else {
			cfg.Interval = d
		}
	}
	return errors.Join(errs...)
}

// flags mirrors Config on a FlagSet; only flags given on the command line are applied.
type flags struct {
	fs *flag.FlagSet

	policy        string
	seats         int
	horizon       int
	trials        int
	flights       int
	seed          int64
	workers       int
	dataPath      string
	class         string
	demandMin     float64
	demandMax     float64
	postgresDSN   string
	clickhouseDSN string
	outputDir     string
	json          bool
	verify        bool
	metricsAddr   string
	interval      time.Duration
}

func newFlags(name string) *flags {
	policy := DefaultPolicy(name)
	kind, _ := pricing.ParseKind(policy)
	d := Defaults(kind)
	f := &flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(io.Discard)

	f.fs.StringVar(&f.policy, "policy", policy, "Pricing policy: elastic or business")
	f.fs.IntVar(&f.seats, "seats", d.Seats, "Seat capacity (business default: 50)")
	f.fs.IntVar(&f.horizon, "horizon", d.Horizon, "Days simulated per trial in random mode")
	f.fs.IntVar(&f.trials, "trials", d.Trials, "Number of random-demand trials")
	f.fs.IntVar(&f.flights, "flights", d.Flights, "Number of historical flights to simulate")
	f.fs.Int64Var(&f.seed, "seed", d.Seed, "Base seed; trial i uses seed+i")
	f.fs.IntVar(&f.workers, "workers", d.Workers, "Parallel trial workers (0 = one per CPU)")
	f.fs.StringVar(&f.dataPath, "data", d.DataPath, "Historical dataset CSV path")
	f.fs.StringVar(&f.class, "class", d.Class, "Fare class kept from the dataset")
	f.fs.Float64Var(&f.demandMin, "demand-min", d.DemandMin, "Fallback demand lower bound (business default: 20)")
	f.fs.Float64Var(&f.demandMax, "demand-max", d.DemandMax, "Fallback demand upper bound (business default: 40)")
	f.fs.StringVar(&f.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string (empty = in-memory)")
	f.fs.StringVar(&f.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string (empty = in-memory)")
	f.fs.StringVar(&f.outputDir, "output-dir", d.OutputDir, "Output directory for reports")
	f.fs.BoolVar(&f.json, "json", false, "Print results as JSON")
	f.fs.BoolVar(&f.verify, "verify", false, "Replay stored trials and report divergences")
	f.fs.StringVar(&f.metricsAddr, "metrics-addr", d.MetricsAddr, "HTTP address for /metrics and /ws/trials")
	f.fs.DurationVar(&f.interval, "interval", d.Interval, "Analysis interval for the server")
	return f
}

func (f *flags) apply(cfg *Config, set map[string]bool) {
	if set["seats"] {
		cfg.Seats = f.seats
	}
	if set["horizon"] {
		cfg.Horizon = f.horizon
	}
	if set["trials"] {
		cfg.Trials = f.trials
	}
	if set["flights"] {
		cfg.Flights = f.flights
	}
	if set["seed"] {
		cfg.Seed = f.seed
	}
	if set["workers"] {
		cfg.Workers = f.workers
	}
	if set["data"] {
		cfg.DataPath = f.dataPath
	}
	if set["class"] {
		cfg.Class = f.class
	}
	if set["demand-min"] {
		cfg.DemandMin = f.demandMin
	}
	if set["demand-max"] {
		cfg.DemandMax = f.demandMax
	}
	if set["postgres-dsn"] {
		cfg.PostgresDSN = f.postgresDSN
	}
	if set["clickhouse-dsn"] {
		cfg.ClickhouseDSN = f.clickhouseDSN
	}
	if set["output-dir"] {
		cfg.OutputDir = f.outputDir
	}
	if set["json"] {
		cfg.JSON = f.json
	}
	if set["verify"] {
		cfg.Verify = f.verify
	}
	if set["metrics-addr"] {
		cfg.MetricsAddr = f.metricsAddr
	}
	if set["interval"] {
		cfg.Interval = f.interval
	}
}

// Usage writes flag help for the named command.
func Usage(w io.Writer, name string) {
	fl := newFlags(name)
	fl.fs.SetOutput(w)
	fmt.Fprintf(w, "Usage of %s:\n", name)
	fl.fs.PrintDefaults()
}
