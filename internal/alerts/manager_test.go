package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/models"
)

type stubNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func newStubNotifier(err error) *stubNotifier {
	return &stubNotifier{err: err, done: make(chan struct{}, 16)}
}

func (n *stubNotifier) NotifyCritical(_ context.Context, _ models.Alert) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func finding(t models.FindingType, severity models.Severity) models.Finding {
	return models.Finding{
		ID:          "f-1",
		Type:        t,
		SourceID:    "host-1",
		Severity:    severity,
		Description: "test finding",
	}
}

func TestProcessDeduplicates(t *testing.T) {
	m := NewManager(nil, nil, 0)

	first := m.Process(finding(models.FindingCPUThreshold, models.SeverityHigh))
	second := m.Process(finding(models.FindingCPUThreshold, models.SeverityCritical))

	if first.Key != second.Key {
		t.Fatalf("expected one identity key, got %q and %q", first.Key, second.Key)
	}
	if second.Count != 2 {
		t.Fatalf("expected count 2 after repeat, got %d", second.Count)
	}
	// First classification wins; repeats must not flap severity.
	if second.Severity != models.SeverityHigh {
		t.Fatalf("expected original severity preserved, got %s", second.Severity)
	}
	if active := m.ListActive(); len(active) != 1 {
		t.Fatalf("expected one active alert, got %d", len(active))
	}
}

func TestProcessSeparatesSources(t *testing.T) {
	m := NewManager(nil, nil, 0)

	f := finding(models.FindingCPUThreshold, models.SeverityHigh)
	m.Process(f)
	f.SourceID = "host-2"
	m.Process(f)

	if active := m.ListActive(); len(active) != 2 {
		t.Fatalf("expected two active alerts across sources, got %d", len(active))
	}
}

func TestResolveLifecycle(t *testing.T) {
	m := NewManager(nil, nil, 0)
	alert := m.Process(finding(models.FindingMemoryLeak, models.SeverityHigh))

	if !m.Resolve(alert.Key) {
		t.Fatalf("expected resolve to succeed")
	}
	if m.Resolve(alert.Key) {
		t.Fatalf("expected repeat resolve to fail")
	}
	if m.Resolve("unknown:key") {
		t.Fatalf("expected resolve of unknown key to fail")
	}

	if active := m.ListActive(); len(active) != 0 {
		t.Fatalf("expected no active alerts, got %d", len(active))
	}
	history := m.ListHistory(0)
	if len(history) != 1 {
		t.Fatalf("expected one resolved alert in history, got %d", len(history))
	}
	if history[0].Status != models.AlertResolved || history[0].ResolvedAt == nil {
		t.Fatalf("expected resolved status with timestamp, got %+v", history[0])
	}
}

func TestSweepPurgesOldResolved(t *testing.T) {
	m := NewManager(nil, nil, time.Hour)
	alert := m.Process(finding(models.FindingDiskThreshold, models.SeverityHigh))
	if !m.Resolve(alert.Key) {
		t.Fatalf("expected resolve to succeed")
	}

	if removed := m.Sweep(time.Now().UTC()); removed != 0 {
		t.Fatalf("fresh resolution must survive the sweep, removed %d", removed)
	}
	if removed := m.Sweep(time.Now().UTC().Add(2 * time.Hour)); removed != 1 {
		t.Fatalf("expected one purged alert, removed %d", removed)
	}
	if history := m.ListHistory(0); len(history) != 0 {
		t.Fatalf("expected empty history after purge, got %d", len(history))
	}
}

func TestCriticalFindingNotifies(t *testing.T) {
	notifier := newStubNotifier(nil)
	m := NewManager(nil, notifier, 0)

	m.Process(finding(models.FindingCPUThreshold, models.SeverityCritical))

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a notification for a critical finding")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}
}

func TestNotifierFailureIsNotFatal(t *testing.T) {
	notifier := newStubNotifier(errors.New("connection refused"))
	m := NewManager(nil, notifier, 0)

	alert := m.Process(finding(models.FindingCPUThreshold, models.SeverityCritical))

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the notifier to be invoked")
	}
	if alert.Status != models.AlertActive {
		t.Fatalf("notifier failure must not change alert state, got %s", alert.Status)
	}
	if active := m.ListActive(); len(active) != 1 {
		t.Fatalf("expected the alert to stay active, got %d", len(active))
	}
}

func TestNonCriticalDoesNotNotify(t *testing.T) {
	notifier := newStubNotifier(nil)
	m := NewManager(nil, notifier, 0)

	m.Process(finding(models.FindingMemoryThreshold, models.SeverityHigh))

	select {
	case <-notifier.done:
		t.Fatalf("high severity must not trigger the critical channel")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListHistoryLimit(t *testing.T) {
	m := NewManager(nil, nil, 0)
	types := []models.FindingType{
		models.FindingCPUThreshold,
		models.FindingMemoryThreshold,
		models.FindingDiskThreshold,
	}
	for _, ft := range types {
		alert := m.Process(finding(ft, models.SeverityHigh))
		if !m.Resolve(alert.Key) {
			t.Fatalf("expected resolve to succeed for %s", ft)
		}
	}

	if history := m.ListHistory(2); len(history) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(history))
	}
	if history := m.ListHistory(0); len(history) != 3 {
		t.Fatalf("expected full history, got %d", len(history))
	}
}
