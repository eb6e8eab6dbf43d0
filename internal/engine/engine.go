// Package engine orchestrates the detection pipeline: snapshots are buffered
// per source, every registered detector scores them, and the resulting
// findings flow into the alert sink. The engine also answers the synchronous
// analytics queries (health, failure forecast, insights) from buffered
// history.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/detectors"
	"github.com/pulseguard/pulse-sentinel/internal/metrics"
	"github.com/pulseguard/pulse-sentinel/internal/ml"
	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
	"github.com/pulseguard/pulse-sentinel/internal/utils"
)

const (
	predictionWindow     = 10
	predictionMinSamples = 5
	insightsWindow       = 10

	diskFullLimit   = 100.0
	memExhaustLimit = 95.0
	diskSlopeFloor  = 0.1
	memSlopeFloor   = 0.5
	diskHorizonMax  = 100
	memHorizonMax   = 50
)

// AlertSink receives every finding the engine emits. The alert manager is
// the production sink; tests plug in fakes.
type AlertSink interface {
	Process(finding models.Finding) models.Alert
}

// Engine runs detectors over per-source telemetry windows.
type Engine struct {
	logger    *slog.Logger
	registry  *telemetry.Registry
	detectors []detectors.Detector
	alerts    AlertSink
	latencies *utils.LatencyTracker

	mu      sync.Mutex
	ingests map[string]*sync.Mutex
	count   int
}

// New constructs an Engine. The detector slice is run in order on every
// ingested snapshot.
func New(logger *slog.Logger, registry *telemetry.Registry, dets []detectors.Detector, alerts AlertSink) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:    logger,
		registry:  registry,
		detectors: dets,
		alerts:    alerts,
		latencies: utils.NewLatencyTracker(1024),
		ingests:   make(map[string]*sync.Mutex),
	}
}

// Ingest buffers the snapshot and runs every detector against the source's
// window. Snapshots for the same source are serialized so detector baselines
// always see a consistent history; different sources ingest concurrently.
func (e *Engine) Ingest(ctx context.Context, snap models.Snapshot) ([]models.Finding, error) {
	if snap.SourceID == "" {
		return nil, utils.NewAppError("engine.ingest", "source_id is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	lock := e.sourceLock(snap.SourceID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	window := e.registry.Buffer(snap.SourceID)
	window.Append(snap)

	var findings []models.Finding
	for _, d := range e.detectors {
		detectStart := time.Now()
		found := d.Detect(snap, window)
		metrics.ObserveDetector(d.Name(), time.Since(detectStart))
		findings = append(findings, found...)
	}

	for _, f := range findings {
		metrics.RecordFinding(string(f.Type))
		if e.alerts != nil {
			e.alerts.Process(f)
		}
	}

	elapsed := time.Since(started)
	metrics.ObserveIngest(elapsed)
	e.latencies.Observe(elapsed)

	e.mu.Lock()
	e.count++
	logPercentile := e.count%20 == 0
	e.mu.Unlock()
	if logPercentile {
		e.logger.Info("ingest latency",
			slog.Duration("p95", e.latencies.Percentile(95)),
			slog.Int("samples", e.latencies.Count()))
	}

	if len(findings) > 0 {
		e.logger.Debug("findings emitted",
			slog.String("source_id", snap.SourceID),
			slog.Int("count", len(findings)))
	}
	return findings, nil
}

// HealthScore gauges the latest buffered snapshot of a source against static
// usage thresholds. An unknown or empty source yields insufficient_data.
func (e *Engine) HealthScore(sourceID string) models.HealthReport {
	report := models.HealthReport{
		SourceID:        sourceID,
		Status:          models.HealthInsufficientData,
		CriticalIssues:  []models.HealthIssue{},
		Warnings:        []models.HealthIssue{},
		ComponentScores: map[string]float64{},
	}

	window, ok := e.registry.Lookup(sourceID)
	if !ok {
		return report
	}
	latest, ok := window.Latest()
	if !ok {
		return report
	}

	report.Status = models.HealthHealthy
	report.OverallScore = 100

	if latest.HasCPU() {
		usage := latest.CPU.Field("usage_percent")
		switch {
		case usage > 95:
			report.CriticalIssues = append(report.CriticalIssues, models.HealthIssue{
				Component: "cpu",
				Issue:     "Critical CPU usage",
				Value:     usage,
				Impact:    "System may become unresponsive",
			})
			report.OverallScore -= 30
		case usage > 80:
			report.Warnings = append(report.Warnings, models.HealthIssue{
				Component: "cpu",
				Issue:     "High CPU usage",
				Value:     usage,
			})
			report.OverallScore -= 10
		}
		report.ComponentScores["cpu"] = clampScore(100 - usage)
	}

	if latest.HasMemory() {
		usage := latest.Memory.Field("usage_percent")
		switch {
		case usage > 95:
			report.CriticalIssues = append(report.CriticalIssues, models.HealthIssue{
				Component: "memory",
				Issue:     "Critical memory usage",
				Value:     usage,
				Impact:    "Risk of out-of-memory errors",
			})
			report.OverallScore -= 25
		case usage > 85:
			report.Warnings = append(report.Warnings, models.HealthIssue{
				Component: "memory",
				Issue:     "High memory usage",
				Value:     usage,
			})
			report.OverallScore -= 10
		}
		report.ComponentScores["memory"] = clampScore(100 - usage)
	}

	if latest.HasDisk() {
		usage := latest.Disk.Field("usage_percent")
		switch {
		case usage > 98:
			report.CriticalIssues = append(report.CriticalIssues, models.HealthIssue{
				Component: "disk",
				Issue:     "Critical disk usage",
				Value:     usage,
				Impact:    "System may fail to write data",
			})
			report.OverallScore -= 35
		case usage > 90:
			report.Warnings = append(report.Warnings, models.HealthIssue{
				Component: "disk",
				Issue:     "High disk usage",
				Value:     usage,
			})
			report.OverallScore -= 15
		}
		report.ComponentScores["disk"] = clampScore(100 - usage)
	}

	if len(report.CriticalIssues) > 0 {
		report.Status = models.HealthCritical
	} else if len(report.Warnings) > 0 {
		report.Status = models.HealthWarning
	}
	return report
}

// PredictFailure extrapolates disk and memory usage toward their exhaustion
// thresholds by linear fit over the last ten samples. A nil prediction means
// no failure is forecast within the bounded horizon.
func (e *Engine) PredictFailure(sourceID string) models.FailureForecast {
	forecast := models.FailureForecast{SourceID: sourceID}

	window, ok := e.registry.Lookup(sourceID)
	if !ok || window.Len() < predictionWindow {
		return forecast
	}
	recent := window.Recent(predictionWindow)

	diskValues := usageValues(recent, func(s models.Snapshot) (models.MetricGroup, bool) {
		return s.Disk, s.HasDisk()
	})
	if len(diskValues) >= predictionMinSamples {
		forecast.Disk = extrapolate(diskValues, diskSlopeFloor, diskFullLimit, diskHorizonMax, 0.9, 10)
	}

	memValues := usageValues(recent, func(s models.Snapshot) (models.MetricGroup, bool) {
		return s.Memory, s.HasMemory()
	})
	if len(memValues) >= predictionMinSamples {
		forecast.Memory = extrapolate(memValues, memSlopeFloor, memExhaustLimit, memHorizonMax, 0.85, 5)
	}

	return forecast
}

// Insights summarises recent resource direction and derives an efficiency
// score weighted toward sustained CPU and memory pressure.
func (e *Engine) Insights(sourceID string) models.PerformanceInsights {
	insights := models.PerformanceInsights{
		SourceID:        sourceID,
		Insights:        []string{},
		Recommendations: []string{},
		Trends:          map[string]models.TrendSummary{},
		EfficiencyScore: 85,
	}

	window, ok := e.registry.Lookup(sourceID)
	if !ok || window.Len() < insightsWindow {
		return insights
	}
	recent := window.Recent(insightsWindow)

	cpuValues := make([]float64, len(recent))
	memValues := make([]float64, len(recent))
	for i, snap := range recent {
		cpuValues[i] = snap.CPU.Field("usage_percent")
		memValues[i] = snap.Memory.Field("usage_percent")
	}

	cpuTrend := meanTail(cpuValues, 3) - meanHead(cpuValues, 3)
	insights.Trends["cpu"] = models.TrendSummary{
		Direction: trendDirection(cpuTrend),
		Change:    cpuTrend,
		Average:   ml.Mean(cpuValues),
	}
	if cpuTrend > 10 {
		insights.Insights = append(insights.Insights,
			"CPU usage has increased significantly in recent measurements")
		insights.Recommendations = append(insights.Recommendations,
			"Consider investigating processes causing increased CPU usage")
	}

	memTrend := meanTail(memValues, 3) - meanHead(memValues, 3)
	insights.Trends["memory"] = models.TrendSummary{
		Direction: trendDirection(memTrend),
		Change:    memTrend,
		Average:   ml.Mean(memValues),
	}
	if memTrend > 8 {
		insights.Insights = append(insights.Insights,
			"Memory usage shows concerning upward trend")
		insights.Recommendations = append(insights.Recommendations,
			"Monitor for potential memory leaks")
	}

	efficiency := 100 - (ml.Mean(cpuValues)*0.4 + ml.Mean(memValues)*0.4 + positive(cpuTrend)*0.2)
	if efficiency < 0 {
		efficiency = 0
	}
	insights.EfficiencyScore = int(efficiency)

	return insights
}

// Sources lists the source identifiers with buffered telemetry.
func (e *Engine) Sources() []string {
	return e.registry.Sources()
}

// Latest returns the most recent snapshot for a source.
func (e *Engine) Latest(sourceID string) (models.Snapshot, bool) {
	window, ok := e.registry.Lookup(sourceID)
	if !ok {
		return models.Snapshot{}, false
	}
	return window.Latest()
}

func (e *Engine) sourceLock(sourceID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.ingests[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		e.ingests[sourceID] = lock
	}
	return lock
}

func usageValues(snaps []models.Snapshot, group func(models.Snapshot) (models.MetricGroup, bool)) []float64 {
	values := make([]float64, 0, len(snaps))
	for _, snap := range snaps {
		if g, ok := group(snap); ok {
			values = append(values, g.Field("usage_percent"))
		}
	}
	return values
}

func extrapolate(values []float64, slopeFloor, limit float64, horizonMax int, confCap, confScale float64) *models.FailurePrediction {
	trend := ml.Slope(values)
	if trend <= slopeFloor {
		return nil
	}
	current := values[len(values)-1]
	intervals := (limit - current) / trend
	if intervals >= float64(horizonMax) {
		return nil
	}
	if intervals < 0 {
		intervals = 0
	}
	confidence := trend * confScale
	if confidence > confCap {
		confidence = confCap
	}
	return &models.FailurePrediction{
		TimeToFailure: int(intervals),
		Confidence:    confidence,
		CurrentUsage:  current,
		Trend:         trend,
	}
}

func trendDirection(change float64) string {
	switch {
	case change > 5:
		return "increasing"
	case change < -5:
		return "decreasing"
	default:
		return "stable"
	}
}

func meanHead(values []float64, k int) float64 {
	if k > len(values) {
		k = len(values)
	}
	return ml.Mean(values[:k])
}

func meanTail(values []float64, k int) float64 {
	if k > len(values) {
		k = len(values)
	}
	return ml.Mean(values[len(values)-k:])
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
