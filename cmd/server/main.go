// Package main provides the long-running analysis service:
// - Analysis (scheduled): random-demand trials → aggregate → report artifacts
// - HTTP: /health, /metrics, /status and a /ws/trials live feed
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"airline-pricing-lab/internal/config"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/observability"
	"airline-pricing-lab/internal/orchestrator"
	"airline-pricing-lab/internal/pipeline"
	"airline-pricing-lab/internal/pricing"
	"airline-pricing-lab/internal/reporting"
	"airline-pricing-lab/internal/stream"
)

// Server holds all components of the service.
type Server struct {
	cfg    *config.Config
	stores *orchestrator.Stores
	orch   *orchestrator.Orchestrator
	hub    *stream.Hub
	logger *log.Logger

	// State
	mu           sync.Mutex
	started      time.Time
	running      bool
	lastRun      time.Time
	lastRunID    string
	lastError    string
	lastStats    *domain.AggregateStats
	analysisRuns int
}

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr, "server")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.PostgresDSN, cfg.ClickhouseDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server, err := newServer(cfg, stores, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: server.routes()}
	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	err = server.Run(ctx)

	server.hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	shutdownCancel()

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func newServer(cfg *config.Config, stores *orchestrator.Stores, logger *log.Logger) (*Server, error) {
	model, err := pricing.FromConfig(cfg.PricingConfig())
	if err != nil {
		return nil, err
	}

	hub := stream.NewHub(nil, log.New(os.Stdout, "[stream] ", log.LstdFlags))

	orch, err := orchestrator.New(orchestrator.Options{
		Model:          model,
		SeatsTotal:     cfg.Seats,
		HorizonDays:    cfg.Horizon,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Fallback:       cfg.DemandRange(),
		TrialStore:     stores.Trials,
		DayRecordStore: stores.DayRecords,
		AggregateStore: stores.Aggregates,
		OnTrial:        hub.PublishTrial,
		OnRun:          hub.PublishRun,
		Logger:         log.New(os.Stdout, "[orchestrator] ", log.LstdFlags),
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		stores:  stores,
		orch:    orch,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
	}, nil
}

// Run executes the analysis immediately and then on every interval until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("Starting analysis scheduler (interval: %v, %d trials)...", s.cfg.Interval, s.cfg.Trials)

	s.runAnalysis(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAnalysis(ctx)
		}
	}
}

// runAnalysis executes one analysis run and writes its report.
func (s *Server) runAnalysis(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Println("Analysis already running, skipping...")
		return
	}
	s.running = true
	s.mu.Unlock()

	var (
		runID string
		stats *domain.AggregateStats
		err   error
	)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.analysisRuns++
		if err != nil {
			s.lastError = err.Error()
		} else {
			s.lastError = ""
			s.lastRunID = runID
			s.lastStats = stats
		}
		s.mu.Unlock()
	}()

	res, err := s.orch.RunAnalysis(ctx, s.cfg.Trials)
	if err != nil {
		s.logger.Printf("Analysis error: %v", err)
		return
	}
	runID, stats = res.RunID, res.Stats

	out, err := pipeline.NewReportPipeline(s.stores.Trials, s.stores.DayRecords, s.stores.Aggregates, s.cfg.OutputDir).
		Run(ctx, res.RunID, reporting.ModeRandom, res.PolicyID)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}

	s.logger.Printf("Analysis %s completed in %v: mean revenue %.2f, reports in %s/",
		res.RunID, res.Duration, res.Stats.RevenueMean, out.Dir)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Live trial feed
	mux.Handle("/ws/trials", s.hub)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	Policy        string    `json:"policy"`
	Trials        int       `json:"trials_per_run"`
	AnalysisRuns  int       `json:"analysis_runs"`
	Running       bool      `json:"running"`
	LastRun       time.Time `json:"last_run,omitempty"`
	LastRunID     string    `json:"last_run_id,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	RevenueMean   *float64  `json:"revenue_mean,omitempty"`
	LoadFactor    *float64  `json:"load_factor_mean,omitempty"`
	StreamClients int       `json:"stream_clients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		Policy:       string(s.cfg.Policy),
		Trials:       s.cfg.Trials,
		AnalysisRuns: s.analysisRuns,
		Running:      s.running,
		LastRun:      s.lastRun,
		LastRunID:    s.lastRunID,
		LastError:    s.lastError,
	}
	if s.lastStats != nil {
		mean, lf := s.lastStats.RevenueMean, s.lastStats.LoadFactorMean
		resp.RevenueMean = &mean
		resp.LoadFactor = &lf
	}
	s.mu.Unlock()
	resp.StreamClients = s.hub.Clients()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
