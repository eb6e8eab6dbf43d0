package detectors

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

// Limits carries the fixed threshold pairs the detector compares against.
// The critical limit escalates severity; a zero critical limit disables
// escalation for that resource.
type Limits struct {
	CPU            float64
	CPUCritical    float64
	Memory         float64
	MemoryCritical float64
	Disk           float64
	DiskCritical   float64
	NetworkLatency float64
}

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{
		CPU:            80,
		CPUCritical:    95,
		Memory:         85,
		MemoryCritical: 95,
		Disk:           90,
		DiskCritical:   98,
		NetworkLatency: 200,
	}
}

// ThresholdDetector is a stateless comparison of each present metric against
// fixed limits. Every breach is an independent finding; simultaneous
// breaches each emit separately.
type ThresholdDetector struct {
	limits Limits
}

// NewThresholdDetector builds a detector using the provided limits; zero
// primary limits fall back to the defaults.
func NewThresholdDetector(limits Limits) *ThresholdDetector {
	def := DefaultLimits()
	if limits.CPU <= 0 {
		limits.CPU, limits.CPUCritical = def.CPU, def.CPUCritical
	}
	if limits.Memory <= 0 {
		limits.Memory, limits.MemoryCritical = def.Memory, def.MemoryCritical
	}
	if limits.Disk <= 0 {
		limits.Disk, limits.DiskCritical = def.Disk, def.DiskCritical
	}
	if limits.NetworkLatency <= 0 {
		limits.NetworkLatency = def.NetworkLatency
	}
	return &ThresholdDetector{limits: limits}
}

// Name identifies the detector in logs and metrics.
func (d *ThresholdDetector) Name() string { return "threshold" }

// Detect compares the snapshot's present metrics against the limits.
func (d *ThresholdDetector) Detect(snap models.Snapshot, _ *telemetry.Buffer) []models.Finding {
	findings := make([]models.Finding, 0, 4)

	if snap.HasCPU() {
		usage := snap.CPU.Field("usage_percent")
		if usage > d.limits.CPU {
			severity := models.SeverityHigh
			if d.limits.CPUCritical > 0 && usage > d.limits.CPUCritical {
				severity = models.SeverityCritical
			}
			findings = append(findings, models.Finding{
				ID:              uuid.NewString(),
				Type:            models.FindingCPUThreshold,
				SourceID:        snap.SourceID,
				Severity:        severity,
				Score:           usage,
				Threshold:       d.limits.CPU,
				Description:     fmt.Sprintf("CPU usage %.1f%% exceeds threshold", usage),
				SuggestedAction: models.ActionIdentifyCPUProcesses,
				DetectedAt:      snap.Timestamp,
			})
		}
	}

	if snap.HasMemory() {
		usage := snap.Memory.Field("usage_percent")
		if usage > d.limits.Memory {
			severity := models.SeverityHigh
			if d.limits.MemoryCritical > 0 && usage > d.limits.MemoryCritical {
				severity = models.SeverityCritical
			}
			findings = append(findings, models.Finding{
				ID:              uuid.NewString(),
				Type:            models.FindingMemoryThreshold,
				SourceID:        snap.SourceID,
				Severity:        severity,
				Score:           usage,
				Threshold:       d.limits.Memory,
				Description:     fmt.Sprintf("Memory usage %.1f%% exceeds threshold", usage),
				SuggestedAction: models.ActionFreeMemory,
				DetectedAt:      snap.Timestamp,
			})
		}
	}

	if snap.HasDisk() {
		usage := snap.Disk.Field("usage_percent")
		if usage > d.limits.Disk {
			severity := models.SeverityHigh
			if d.limits.DiskCritical > 0 && usage > d.limits.DiskCritical {
				severity = models.SeverityCritical
			}
			findings = append(findings, models.Finding{
				ID:              uuid.NewString(),
				Type:            models.FindingDiskThreshold,
				SourceID:        snap.SourceID,
				Severity:        severity,
				Score:           usage,
				Threshold:       d.limits.Disk,
				Description:     fmt.Sprintf("Disk usage %.1f%% exceeds threshold", usage),
				SuggestedAction: models.ActionCleanupDisk,
				DetectedAt:      snap.Timestamp,
			})
		}
	}

	if snap.HasNetwork() {
		latency := snap.Network.Field("latency_ms")
		if latency > d.limits.NetworkLatency {
			findings = append(findings, models.Finding{
				ID:              uuid.NewString(),
				Type:            models.FindingNetworkLatency,
				SourceID:        snap.SourceID,
				Severity:        models.SeverityMedium,
				Score:           latency,
				Threshold:       d.limits.NetworkLatency,
				Description:     fmt.Sprintf("Network latency %.0fms exceeds threshold", latency),
				SuggestedAction: models.ActionCheckNetwork,
				DetectedAt:      snap.Timestamp,
			})
		}
	}

	return findings
}
