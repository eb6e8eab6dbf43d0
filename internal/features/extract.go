// Package features projects snapshots into the fixed-order numeric vectors
// consumed by the model-based detectors.
package features

import "github.com/pulseguard/pulse-sentinel/internal/models"

// Family identifies a detector feature family.
type Family string

const (
	FamilySystem  Family = "system"
	FamilyNetwork Family = "network"
)

// Vector lengths per family. Models depend on positional meaning, so the
// field order below must never change.
const (
	SystemDim  = 11
	NetworkDim = 6
)

// Extract maps a snapshot into the feature vector for the given family.
// ok is false when the snapshot lacks every relevant metric group, so the
// caller can skip that family for this snapshot. Missing fields inside a
// present group contribute 0.
func Extract(snap models.Snapshot, family Family) ([]float64, bool) {
	switch family {
	case FamilySystem:
		return extractSystem(snap)
	case FamilyNetwork:
		return extractNetwork(snap)
	default:
		return nil, false
	}
}

// Dim returns the vector length for a family.
func Dim(family Family) int {
	switch family {
	case FamilySystem:
		return SystemDim
	case FamilyNetwork:
		return NetworkDim
	default:
		return 0
	}
}

func extractSystem(snap models.Snapshot) ([]float64, bool) {
	if !snap.HasCPU() && !snap.HasMemory() && !snap.HasDisk() {
		return nil, false
	}
	return []float64{
		snap.CPU.Field("usage_percent"),
		snap.CPU.Field("load_avg_1m"),
		snap.CPU.Field("load_avg_5m"),
		snap.CPU.Field("context_switches"),
		snap.Memory.Field("usage_percent"),
		snap.Memory.Field("available_mb"),
		snap.Memory.Field("swap_usage_percent"),
		snap.Disk.Field("usage_percent"),
		snap.Disk.Field("read_bytes_per_sec"),
		snap.Disk.Field("write_bytes_per_sec"),
		snap.Disk.Field("io_wait_percent"),
	}, true
}

func extractNetwork(snap models.Snapshot) ([]float64, bool) {
	if !snap.HasNetwork() {
		return nil, false
	}
	return []float64{
		snap.Network.Field("latency_ms"),
		snap.Network.Field("packet_loss_percent"),
		snap.Network.Field("bandwidth_usage_percent"),
		snap.Network.Field("connections_count"),
		snap.Network.Field("bytes_sent_per_sec"),
		snap.Network.Field("bytes_recv_per_sec"),
	}, true
}
