package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-pricing-lab/internal/domain"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func TestHub_PublishTrial(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	flight := int64(42)
	hub.PublishTrial("run-1", domain.TrialSummary{
		TrialID:        "abc",
		TrialIndex:     3,
		FlightID:       &flight,
		TotalRevenue:   8750,
		RemainingSeats: 0,
		LoadFactor:     1,
		AvgPrice:       87.5,
		DaysSimulated:  2,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got TrialEvent
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, EventTrial, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "abc", got.TrialID)
	assert.Equal(t, 3, got.TrialIndex)
	require.NotNil(t, got.FlightID)
	assert.Equal(t, int64(42), *got.FlightID)
	assert.Equal(t, 8750.0, got.TotalRevenue)
	assert.Equal(t, 2, got.DaysSimulated)
}

func TestHub_PublishRun(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.PublishRun(&domain.AggregateStats{
		RunID:         "run-2",
		Policy:        domain.PolicyElastic,
		TrialCount:    10,
		RevenueMean:   8750,
		RevenueStddev: 0,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got RunEvent
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, EventRunComplete, got.Type)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, "ELASTIC", got.Policy)
	assert.Equal(t, 10, got.TrialCount)
	assert.Nil(t, got.Volatility)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, nil)

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	hub.PublishTrial("run", domain.TrialSummary{TrialID: "x"})
	assert.Equal(t, 0, hub.Clients())
}
