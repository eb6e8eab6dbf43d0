// Package alerts owns the alert lifecycle: deduplicating findings into
// long-lived alerts, tracking their state transitions, and purging resolved
// records past retention. Alerts are never mutated outside this package.
package alerts

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/metrics"
	"github.com/pulseguard/pulse-sentinel/internal/models"
)

// DefaultRetention is how long resolved alerts stay queryable in history.
const DefaultRetention = 24 * time.Hour

// Notifier is the side-channel invoked for critical findings. Delivery is
// fire-and-forget: a notifier failure never fails alert processing.
type Notifier interface {
	NotifyCritical(ctx context.Context, alert models.Alert) error
}

// Manager deduplicates findings into alerts keyed on (type, source).
type Manager struct {
	logger    *slog.Logger
	notifier  Notifier
	retention time.Duration

	mu      sync.Mutex
	active  map[string]*models.Alert
	history []models.Alert
}

// NewManager constructs a Manager; notifier may be nil when no side-channel
// is configured.
func NewManager(logger *slog.Logger, notifier Notifier, retention time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		logger:    logger,
		notifier:  notifier,
		retention: retention,
		active:    make(map[string]*models.Alert),
	}
}

// Process upserts the alert for the finding's identity key. The first
// finding creates the alert; repeats bump last-seen and the count but keep
// the original severity and description so displayed classification never
// flaps.
func (m *Manager) Process(finding models.Finding) models.Alert {
	now := time.Now().UTC()
	key := models.AlertKey(finding.Type, finding.SourceID)

	m.mu.Lock()
	alert, ok := m.active[key]
	if ok {
		alert.LastSeen = now
		alert.Count++
	} else {
		alert = &models.Alert{
			Key:             key,
			Type:            finding.Type,
			SourceID:        finding.SourceID,
			Severity:        finding.Severity,
			Description:     finding.Description,
			SuggestedAction: finding.SuggestedAction,
			Status:          models.AlertActive,
			Count:           1,
			FirstSeen:       now,
			LastSeen:        now,
		}
		m.active[key] = alert
	}
	snapshot := *alert
	activeCount := len(m.active)
	m.mu.Unlock()

	metrics.SetActiveAlerts(activeCount)

	if finding.Severity == models.SeverityCritical {
		m.notify(snapshot)
	}

	return snapshot
}

// Resolve transitions an active alert to resolved, moving it into history.
// It returns false when the key is unknown, including on repeat calls.
func (m *Manager) Resolve(key string) bool {
	now := time.Now().UTC()

	m.mu.Lock()
	alert, ok := m.active[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.active, key)
	alert.Status = models.AlertResolved
	alert.ResolvedAt = &now
	m.history = append(m.history, *alert)
	activeCount := len(m.active)
	m.mu.Unlock()

	metrics.SetActiveAlerts(activeCount)
	m.logger.Info("alert resolved", slog.String("key", key))
	return true
}

// ListActive returns the active alerts ordered by first-seen.
func (m *Manager) ListActive() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Alert, 0, len(m.active))
	for _, alert := range m.active {
		out = append(out, *alert)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].Key < out[j].Key
		}
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out
}

// ListHistory returns up to limit resolved alerts, most recent last.
func (m *Manager) ListHistory(limit int) []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]models.Alert, limit)
	copy(out, m.history[len(m.history)-limit:])
	return out
}

// Sweep purges resolved alerts whose resolution is older than retention and
// returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.history[:0]
	removed := 0
	for _, alert := range m.history {
		if alert.ResolvedAt != nil && alert.ResolvedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, alert)
	}
	m.history = kept
	return removed
}

// Run sweeps on a periodic timer until the context is cancelled. The sweep
// is decoupled from the ingest path and never blocks it.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := m.Sweep(now.UTC()); removed > 0 {
				m.logger.Debug("purged resolved alerts", slog.Int("removed", removed))
			}
		}
	}
}

func (m *Manager) notify(alert models.Alert) {
	if m.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.notifier.NotifyCritical(ctx, alert); err != nil {
			metrics.ObserveNotification(metrics.OutcomeError)
			m.logger.Warn("critical alert notification failed",
				slog.String("key", alert.Key), slog.Any("error", err))
			return
		}
		metrics.ObserveNotification(metrics.OutcomeSuccess)
	}()
}
