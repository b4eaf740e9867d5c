// Package stream pushes trial and run events to websocket subscribers.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"airline-pricing-lab/internal/domain"
	"airline-pricing-lab/internal/observability"
)

// Event types
const (
	EventTrial       = "trial"
	EventRunComplete = "run_complete"
)

// HubConfig configures subscriber connections.
type HubConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a silent client is kept (reset by pongs).
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing one message.
	WriteTimeout time.Duration
	// SendBuffer is the per-client queue; a full queue drops the client.
	SendBuffer int
}

// DefaultHubConfig returns default subscriber configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   256,
	}
}

// TrialEvent is published after each persisted trial.
type TrialEvent struct {
	Type           string  `json:"type"`
	RunID          string  `json:"run_id"`
	TrialID        string  `json:"trial_id"`
	TrialIndex     int     `json:"trial_index"`
	FlightID       *int64  `json:"flight_id,omitempty"`
	TotalRevenue   float64 `json:"total_revenue"`
	RemainingSeats float64 `json:"remaining_seats"`
	LoadFactor     float64 `json:"load_factor"`
	AvgPrice       float64 `json:"avg_price"`
	DaysSimulated  int     `json:"days_simulated"`
}

// RunEvent is published once a run has been aggregated.
type RunEvent struct {
	Type          string   `json:"type"`
	RunID         string   `json:"run_id"`
	Policy        string   `json:"policy"`
	TrialCount    int      `json:"trial_count"`
	RevenueMean   float64  `json:"revenue_mean"`
	RevenueStddev float64  `json:"revenue_stddev"`
	LoadFactor    float64  `json:"load_factor_mean"`
	ValueAtRisk5  float64  `json:"value_at_risk_5"`
	Volatility    *float64 `json:"revenue_volatility,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub fans events out to every connected websocket client.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  atomic.Bool
}

// NewHub creates a hub. A nil config uses DefaultHubConfig.
func NewHub(config *HubConfig, logger *log.Logger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.config.SendBuffer)}
	h.register(c)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// PublishTrial broadcasts a trial summary.
func (h *Hub) PublishTrial(runID string, s domain.TrialSummary) {
	h.broadcast(TrialEvent{
		Type:           EventTrial,
		RunID:          runID,
		TrialID:        s.TrialID,
		TrialIndex:     s.TrialIndex,
		FlightID:       s.FlightID,
		TotalRevenue:   s.TotalRevenue,
		RemainingSeats: s.RemainingSeats,
		LoadFactor:     s.LoadFactor,
		AvgPrice:       s.AvgPrice,
		DaysSimulated:  s.DaysSimulated,
	})
}

// PublishRun broadcasts the aggregate of a finished run.
func (h *Hub) PublishRun(stats *domain.AggregateStats) {
	h.broadcast(RunEvent{
		Type:          EventRunComplete,
		RunID:         stats.RunID,
		Policy:        string(stats.Policy),
		TrialCount:    stats.TrialCount,
		RevenueMean:   stats.RevenueMean,
		RevenueStddev: stats.RevenueStddev,
		LoadFactor:    stats.LoadFactorMean,
		ValueAtRisk5:  stats.ValueAtRisk5,
		Volatility:    stats.RevenueVolatility,
	})
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	if h.closed.Swap(true) {
		return
	}
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("marshal event: %v", err)
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Printf("dropping slow client %s", c.conn.RemoteAddr())
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetStreamClients(n)
}

// unregister removes c and closes its queue exactly once; writeLoop then closes the conn.
func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		n := len(h.clients)
		close(c.send)
		h.mu.Unlock()
		observability.SetStreamClients(n)
	})
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop discards client messages and unregisters on disconnect.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("client %s: %v", c.conn.RemoteAddr(), err)
			}
			return
		}
	}
}

// String is used in status output.
func (h *Hub) String() string {
	return fmt.Sprintf("stream hub (%d clients)", h.Clients())
}
