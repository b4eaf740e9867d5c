package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-pricing-lab/internal/config"
	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/orchestrator"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults(domain.PolicyElastic)
	cfg.Trials = 4
	cfg.Horizon = 7
	cfg.OutputDir = t.TempDir()

	stores, cleanup, err := orchestrator.OpenStores(context.Background(), "", "", nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	s, err := newServer(&cfg, stores, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(s.hub.Close)
	return s
}

func TestServer_StatusAfterAnalysis(t *testing.T) {
	s := testServer(t)
	s.runAnalysis(context.Background())

	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))

	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 1, status.AnalysisRuns)
	assert.NotEmpty(t, status.LastRunID)
	assert.Empty(t, status.LastError)
	require.NotNil(t, status.RevenueMean)
	assert.Greater(t, *status.RevenueMean, 0.0)
}

func TestServer_Health(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.analysisRuns == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
