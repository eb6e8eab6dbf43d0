package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pulseguard/pulse-sentinel/internal/models"
)

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func newSocketFixture(t *testing.T, detection Detection) (*httptest.Server, *Handlers) {
	t.Helper()
	handlers := NewHandlers(nil, detection, &fakeAlertStore{}, nil)
	router := mux.NewRouter()
	handlers.Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, handlers
}

func TestDashboardPingPong(t *testing.T) {
	server, _ := newSocketFixture(t, &fakeDetection{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/dashboard"), nil)
	if err != nil {
		t.Fatalf("dial dashboard: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if string(payload) != "pong" {
		t.Fatalf("expected pong, got %q", payload)
	}
}

func TestAgentSocketIngestBroadcasts(t *testing.T) {
	detection := &fakeDetection{findings: []models.Finding{{
		Type:     models.FindingCPUThreshold,
		SourceID: "host-9",
		Severity: models.SeverityCritical,
	}}}
	server, handlers := newSocketFixture(t, detection)

	dashboard, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/dashboard"), nil)
	if err != nil {
		t.Fatalf("dial dashboard: %v", err)
	}
	defer dashboard.Close()

	agent, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/agent/host-9"), nil)
	if err != nil {
		t.Fatalf("dial agent: %v", err)
	}
	defer agent.Close()

	waitFor(t, func() bool { return handlers.Hub().AgentCount() == 1 })

	// Source id omitted on purpose; the socket path supplies it.
	if err := agent.WriteJSON(map[string]interface{}{
		"cpu": map[string]float64{"usage_percent": 99},
	}); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	types := make(map[string]bool)
	_ = dashboard.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		var envelope Envelope
		if err := dashboard.ReadJSON(&envelope); err != nil {
			t.Fatalf("read broadcast %d: %v", i, err)
		}
		types[envelope.Type] = true
	}
	for _, want := range []string{EventMetricsUpdate, EventAnomalyDetected, EventCriticalAlert} {
		if !types[want] {
			t.Fatalf("missing %s broadcast, got %v", want, types)
		}
	}

	got := detection.snapshots()
	if len(got) != 1 || got[0].SourceID != "host-9" {
		t.Fatalf("expected path source id on the snapshot, got %+v", got)
	}
}

func TestAgentCommandRoundTrip(t *testing.T) {
	server, handlers := newSocketFixture(t, &fakeDetection{})

	agent, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/agent/host-1"), nil)
	if err != nil {
		t.Fatalf("dial agent: %v", err)
	}
	defer agent.Close()

	waitFor(t, func() bool { return handlers.Hub().AgentCount() == 1 })

	if err := handlers.Hub().SendToAgent("host-1", map[string]string{"command": "restart"}); err != nil {
		t.Fatalf("send command: %v", err)
	}

	_ = agent.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope Envelope
	if err := agent.ReadJSON(&envelope); err != nil {
		t.Fatalf("read command: %v", err)
	}
	if envelope.Type != EventCommand {
		t.Fatalf("expected command envelope, got %s", envelope.Type)
	}
}

func TestSendToAgentUnknown(t *testing.T) {
	hub := NewHub(nil)
	if err := hub.SendToAgent("ghost", map[string]string{"command": "restart"}); err == nil {
		t.Fatalf("expected error for unknown agent")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
