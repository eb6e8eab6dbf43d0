package models

import "time"

// MetricGroup is a flat mapping of named numeric fields within one
// telemetry category (cpu, memory, disk, network).
type MetricGroup map[string]float64

// Field returns the named value, defaulting to 0 when the field is absent.
func (g MetricGroup) Field(name string) float64 {
	if g == nil {
		return 0
	}
	return g[name]
}

// Snapshot is one timestamped telemetry sample from one monitored source.
// A snapshot is immutable once decoded; the buffer holds read-only copies.
type Snapshot struct {
	SourceID  string      `json:"source_id"`
	Timestamp time.Time   `json:"timestamp"`
	CPU       MetricGroup `json:"cpu,omitempty"`
	Memory    MetricGroup `json:"memory,omitempty"`
	Disk      MetricGroup `json:"disk,omitempty"`
	Network   MetricGroup `json:"network,omitempty"`
}

// HasCPU reports whether the cpu group was supplied.
func (s Snapshot) HasCPU() bool { return s.CPU != nil }

// HasMemory reports whether the memory group was supplied.
func (s Snapshot) HasMemory() bool { return s.Memory != nil }

// HasDisk reports whether the disk group was supplied.
func (s Snapshot) HasDisk() bool { return s.Disk != nil }

// HasNetwork reports whether the network group was supplied.
func (s Snapshot) HasNetwork() bool { return s.Network != nil }
