package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pulseguard/pulse-sentinel/internal/engine"
	"github.com/pulseguard/pulse-sentinel/internal/models"
)

// Detection narrows the engine to the operations the handlers need.
type Detection interface {
	Ingest(ctx context.Context, snap models.Snapshot) ([]models.Finding, error)
	HealthScore(sourceID string) models.HealthReport
	PredictFailure(sourceID string) models.FailureForecast
	Insights(sourceID string) models.PerformanceInsights
	Sources() []string
}

// AlertStore narrows the alert manager to the read/resolve surface.
type AlertStore interface {
	ListActive() []models.Alert
	ListHistory(limit int) []models.Alert
	Resolve(key string) bool
}

// Handlers binds the HTTP routes to the engine and alert manager.
type Handlers struct {
	logger   *slog.Logger
	pipeline Detection
	alerts   AlertStore
	hub      *Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// NewHandlers constructs the route handlers.
func NewHandlers(logger *slog.Logger, pipeline Detection, alerts AlertStore, hub *Hub) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Handlers{
		logger:   logger,
		pipeline: pipeline,
		alerts:   alerts,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		started: time.Now().UTC(),
	}
}

// Hub exposes the broadcast hub so background loops can push events.
func (h *Handlers) Hub() *Hub { return h.hub }

// Register wires every route onto the router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/ingest", h.handleIngest).Methods(http.MethodPost)
	v1.HandleFunc("/alerts/active", h.handleActiveAlerts).Methods(http.MethodGet)
	v1.HandleFunc("/alerts/history", h.handleAlertHistory).Methods(http.MethodGet)
	v1.HandleFunc("/alerts/{key}/resolve", h.handleResolveAlert).Methods(http.MethodPost)
	v1.HandleFunc("/health-score", h.handleHealthScore).Methods(http.MethodGet)
	v1.HandleFunc("/predict-failure", h.handlePredictFailure).Methods(http.MethodGet)
	v1.HandleFunc("/insights", h.handleInsights).Methods(http.MethodGet)
	v1.HandleFunc("/remediation", h.handleRemediation).Methods(http.MethodGet)
	v1.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/agents/{id}/restart", h.handleAgentRestart).Methods(http.MethodPost)
	v1.HandleFunc("/agents/{id}/remediate", h.handleAgentRemediate).Methods(http.MethodPost)

	router.HandleFunc("/ws/agent/{source_id}", h.handleAgentSocket)
	router.HandleFunc("/ws/dashboard", h.handleDashboardSocket)
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleIngest(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot payload")
		return
	}

	findings, err := h.pipeline.Ingest(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.publish(snap, findings)

	if findings == nil {
		findings = []models.Finding{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source_id": snap.SourceID,
		"findings":  findings,
	})
}

func (h *Handlers) handleActiveAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.alerts.ListActive(),
	})
}

func (h *Handlers) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.alerts.ListHistory(limit),
	})
}

func (h *Handlers) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !h.alerts.Resolve(key) {
		writeError(w, http.StatusNotFound, "no active alert with that key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "status": "resolved"})
}

func (h *Handlers) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.HealthScore(sourceID))
}

func (h *Handlers) handlePredictFailure(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.PredictFailure(sourceID))
}

func (h *Handlers) handleInsights(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Insights(sourceID))
}

func (h *Handlers) handleRemediation(w http.ResponseWriter, r *http.Request) {
	findingType := r.URL.Query().Get("type")
	if findingType == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	plan := engine.RemediationFor(models.FindingType(findingType))
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "ok",
		"sources":              h.pipeline.Sources(),
		"active_alerts":        len(h.alerts.ListActive()),
		"connected_agents":     h.hub.AgentCount(),
		"connected_dashboards": h.hub.DashboardCount(),
		"uptime_seconds":       int(time.Since(h.started).Seconds()),
	})
}

func (h *Handlers) handleAgentRestart(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	command := map[string]interface{}{
		"command":   "restart",
		"issued_at": time.Now().UTC(),
	}
	if err := h.hub.SendToAgent(agentID, command); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"agent_id": agentID, "command": "restart"})
}

func (h *Handlers) handleAgentRemediate(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	var body struct {
		Type models.FindingType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type == "" {
		writeError(w, http.StatusBadRequest, "a finding type is required")
		return
	}

	plan := engine.RemediationFor(body.Type)
	command := map[string]interface{}{
		"command":   "remediate",
		"type":      body.Type,
		"plan":      plan,
		"issued_at": time.Now().UTC(),
	}
	if err := h.hub.SendToAgent(agentID, command); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agent_id": agentID,
		"command":  "remediate",
		"plan":     plan,
	})
}

func (h *Handlers) handleAgentSocket(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["source_id"]
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("agent websocket upgrade failed", slog.Any("error", err))
		return
	}
	h.hub.AddAgent(sourceID, conn)
	defer func() {
		h.hub.RemoveAgent(sourceID, conn)
		_ = conn.Close()
		h.logger.Info("agent disconnected", slog.String("source_id", sourceID))
	}()

	for {
		var snap models.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return
		}
		if snap.SourceID == "" {
			snap.SourceID = sourceID
		}

		findings, err := h.pipeline.Ingest(r.Context(), snap)
		if err != nil {
			h.logger.Warn("agent snapshot rejected",
				slog.String("source_id", sourceID), slog.Any("error", err))
			continue
		}
		h.publish(snap, findings)
	}
}

func (h *Handlers) handleDashboardSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("dashboard websocket upgrade failed", slog.Any("error", err))
		return
	}
	h.hub.AddDashboard(conn)
	defer func() {
		h.hub.RemoveDashboard(conn)
		_ = conn.Close()
	}()

	// Dashboards are write-only from the hub's perspective; the read loop
	// detects disconnects and answers application-level pings.
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && string(payload) == "ping" {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		}
	}
}

// publish fans ingest results out to dashboards.
func (h *Handlers) publish(snap models.Snapshot, findings []models.Finding) {
	h.hub.Broadcast(EventMetricsUpdate, map[string]interface{}{
		"snapshot": snap,
		"findings": findings,
	})
	for _, f := range findings {
		h.hub.Broadcast(EventAnomalyDetected, f)
		if f.Severity == models.SeverityCritical {
			h.hub.Broadcast(EventCriticalAlert, f)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
