package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations.
	OutcomeError = "error"
)

var (
	snapshotsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulse_sentinel",
			Name:      "snapshots_total",
			Help:      "Total number of telemetry snapshots ingested.",
		},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse_sentinel",
			Name:      "findings_total",
			Help:      "Total number of findings emitted, partitioned by type.",
		},
		[]string{"type"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse_sentinel",
			Name:      "notifications_total",
			Help:      "Critical alert notifications attempted, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	activeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulse_sentinel",
			Name:      "active_alerts",
			Help:      "Number of currently active alerts.",
		},
	)

	ingestSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulse_sentinel",
			Name:      "ingest_seconds",
			Help:      "Snapshot ingest latency in seconds, detectors included.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	detectorSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulse_sentinel",
			Name:      "detector_seconds",
			Help:      "Per-detector scoring latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"detector"},
	)
)

// Register attaches pulse-sentinel collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		snapshotsTotal,
		findingsTotal,
		notificationsTotal,
		activeAlerts,
		ingestSeconds,
		detectorSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveIngest records one ingest pass.
func ObserveIngest(duration time.Duration) {
	snapshotsTotal.Inc()
	if duration < 0 {
		duration = 0
	}
	ingestSeconds.Observe(duration.Seconds())
}

// ObserveDetector records one detector invocation.
func ObserveDetector(name string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	detectorSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordFinding counts one emitted finding by type.
func RecordFinding(findingType string) {
	findingsTotal.WithLabelValues(findingType).Inc()
}

// SetActiveAlerts updates the active alert gauge.
func SetActiveAlerts(count int) {
	activeAlerts.Set(float64(count))
}

// ObserveNotification counts one notification attempt by outcome.
func ObserveNotification(outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	notificationsTotal.WithLabelValues(outcome).Inc()
}
