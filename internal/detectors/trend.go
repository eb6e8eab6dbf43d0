package detectors

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pulseguard/pulse-sentinel/internal/ml"
	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

const (
	// cpuTrendWindow is how far back the detector looks for cpu samples.
	cpuTrendWindow = 20
	// cpuTrendMinSamples gates the rapid-increase rule.
	cpuTrendMinSamples = 15
	// cpuTrendDelta is the percentage-point rise that flags a runaway process.
	cpuTrendDelta = 30

	// memTrendWindow is how far back the detector looks for memory samples.
	memTrendWindow = 15
	// memTrendMinSamples gates the leak rule.
	memTrendMinSamples = 10
	// memLeakSlope is the per-sample growth that flags a leak pattern.
	memLeakSlope = 2
)

// TrendDetector targets monotonic drift with simple linear statistics: a
// step comparison for rapid cpu increases and a least-squares slope for
// memory leak patterns. Point deviation is the outlier detector's job.
type TrendDetector struct{}

// NewTrendDetector builds a trend detector.
func NewTrendDetector() *TrendDetector {
	return &TrendDetector{}
}

// Name identifies the detector in logs and metrics.
func (d *TrendDetector) Name() string { return "trend" }

// Detect analyses recent cpu and memory usage series from the window.
func (d *TrendDetector) Detect(snap models.Snapshot, window *telemetry.Buffer) []models.Finding {
	var findings []models.Finding

	if f, ok := d.detectCPUTrend(snap, window); ok {
		findings = append(findings, f)
	}
	if f, ok := d.detectMemoryLeak(snap, window); ok {
		findings = append(findings, f)
	}
	return findings
}

func (d *TrendDetector) detectCPUTrend(snap models.Snapshot, window *telemetry.Buffer) (models.Finding, bool) {
	values := usageSeries(window, cpuTrendWindow, func(s models.Snapshot) (float64, bool) {
		return s.CPU.Field("usage_percent"), s.HasCPU()
	})
	if len(values) < cpuTrendMinSamples {
		return models.Finding{}, false
	}

	n := len(values)
	recent := ml.Mean(values[n-5:])
	older := ml.Mean(values[n-15 : n-10])
	delta := recent - older
	if delta <= cpuTrendDelta {
		return models.Finding{}, false
	}

	return models.Finding{
		ID:              uuid.NewString(),
		Type:            models.FindingCPUTrend,
		SourceID:        snap.SourceID,
		Severity:        models.SeverityHigh,
		Score:           delta,
		Threshold:       cpuTrendDelta,
		Description:     fmt.Sprintf("Rapid CPU increase detected: %.1f%% -> %.1f%%", older, recent),
		SuggestedAction: models.ActionInvestigateCPUSpike,
		DetectedAt:      snap.Timestamp,
	}, true
}

func (d *TrendDetector) detectMemoryLeak(snap models.Snapshot, window *telemetry.Buffer) (models.Finding, bool) {
	values := usageSeries(window, memTrendWindow, func(s models.Snapshot) (float64, bool) {
		return s.Memory.Field("usage_percent"), s.HasMemory()
	})
	if len(values) < memTrendMinSamples {
		return models.Finding{}, false
	}
	if len(values) > memTrendMinSamples {
		values = values[len(values)-memTrendMinSamples:]
	}

	slope := ml.Slope(values)
	if slope <= memLeakSlope {
		return models.Finding{}, false
	}

	return models.Finding{
		ID:              uuid.NewString(),
		Type:            models.FindingMemoryLeak,
		SourceID:        snap.SourceID,
		Severity:        models.SeverityHigh,
		Score:           slope,
		Threshold:       memLeakSlope,
		Description:     fmt.Sprintf("Potential memory leak detected (trend: +%.1f%% per interval)", slope),
		SuggestedAction: models.ActionInvestigateMemLeak,
		DetectedAt:      snap.Timestamp,
	}, true
}

// usageSeries collects one metric from the last k snapshots that carry the
// relevant group, oldest first.
func usageSeries(window *telemetry.Buffer, k int, pick func(models.Snapshot) (float64, bool)) []float64 {
	slice := window.Recent(k)
	values := make([]float64, 0, len(slice))
	for _, snap := range slice {
		if v, ok := pick(snap); ok {
			values = append(values, v)
		}
	}
	return values
}
