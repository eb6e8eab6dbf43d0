package api

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// EventMetricsUpdate carries a freshly ingested snapshot plus findings.
	EventMetricsUpdate = "metrics_update"
	// EventAnomalyDetected carries one finding.
	EventAnomalyDetected = "anomaly_detected"
	// EventCriticalAlert carries an alert that crossed the critical line.
	EventCriticalAlert = "critical_alert"
	// EventHealthUpdate carries the periodic background health report.
	EventHealthUpdate = "health_update"
	// EventCommand carries an operator command pushed down to an agent.
	EventCommand = "command"

	writeWait = 5 * time.Second
)

// Envelope is the wire frame for every hub message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans events out to dashboard sockets and addresses commands to agent
// sockets. Dead connections are pruned on write failure rather than tracked
// with keepalives.
type Hub struct {
	logger *slog.Logger

	mu         sync.Mutex
	dashboards map[*websocket.Conn]bool
	agents     map[string]*websocket.Conn
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		dashboards: make(map[*websocket.Conn]bool),
		agents:     make(map[string]*websocket.Conn),
	}
}

// AddDashboard registers a dashboard connection for broadcasts.
func (h *Hub) AddDashboard(conn *websocket.Conn) {
	h.mu.Lock()
	h.dashboards[conn] = true
	h.mu.Unlock()
	h.logger.Debug("dashboard connected")
}

// RemoveDashboard unregisters a dashboard connection.
func (h *Hub) RemoveDashboard(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.dashboards, conn)
	h.mu.Unlock()
}

// AddAgent registers the socket for a source. A reconnecting agent replaces
// its previous socket.
func (h *Hub) AddAgent(sourceID string, conn *websocket.Conn) {
	h.mu.Lock()
	if old, ok := h.agents[sourceID]; ok && old != conn {
		_ = old.Close()
	}
	h.agents[sourceID] = conn
	h.mu.Unlock()
	h.logger.Info("agent connected", slog.String("source_id", sourceID))
}

// RemoveAgent unregisters the socket for a source if it is still current.
func (h *Hub) RemoveAgent(sourceID string, conn *websocket.Conn) {
	h.mu.Lock()
	if current, ok := h.agents[sourceID]; ok && current == conn {
		delete(h.agents, sourceID)
	}
	h.mu.Unlock()
}

// Broadcast sends the envelope to every dashboard, dropping connections
// whose writes fail.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	envelope := Envelope{Type: eventType, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.dashboards {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(envelope); err != nil {
			delete(h.dashboards, conn)
			_ = conn.Close()
			h.logger.Debug("dropped dashboard connection", slog.Any("error", err))
		}
	}
}

// SendToAgent delivers a command envelope to one agent socket.
func (h *Hub) SendToAgent(sourceID string, data interface{}) error {
	h.mu.Lock()
	conn, ok := h.agents[sourceID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("agent %s is not connected", sourceID)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Envelope{Type: EventCommand, Data: data}); err != nil {
		h.RemoveAgent(sourceID, conn)
		_ = conn.Close()
		return fmt.Errorf("write to agent %s: %w", sourceID, err)
	}
	return nil
}

// DashboardCount reports connected dashboards.
func (h *Hub) DashboardCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.dashboards)
}

// AgentCount reports connected agents.
func (h *Hub) AgentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.agents)
}
