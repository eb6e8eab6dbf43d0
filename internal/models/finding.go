package models

import "time"

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FindingType enumerates every detection result the engine can emit.
type FindingType string

const (
	FindingSystemAnomaly   FindingType = "system_anomaly"
	FindingNetworkAnomaly  FindingType = "network_anomaly"
	FindingCPUThreshold    FindingType = "cpu_threshold_breach"
	FindingMemoryThreshold FindingType = "memory_threshold_breach"
	FindingDiskThreshold   FindingType = "disk_threshold_breach"
	FindingNetworkLatency  FindingType = "network_latency_high"
	FindingCPUTrend        FindingType = "cpu_trend_anomaly"
	FindingMemoryLeak      FindingType = "memory_leak_pattern"
)

// Action is a suggested remediation tag attached to a finding.
type Action string

const (
	ActionInvestigateSystem    Action = "investigate_system_resources"
	ActionCheckNetwork         Action = "check_network_connectivity"
	ActionIdentifyCPUProcesses Action = "identify_cpu_intensive_processes"
	ActionFreeMemory           Action = "free_memory_resources"
	ActionCleanupDisk          Action = "cleanup_disk_space"
	ActionInvestigateCPUSpike  Action = "investigate_cpu_spike"
	ActionInvestigateMemLeak   Action = "investigate_memory_leak"
	ActionManualInvestigation  Action = "manual_investigation"
)

// Finding is one detector's transient anomaly signal for one snapshot.
// Findings are consumed by the alert manager and broadcast; they are not
// persisted by the engine.
type Finding struct {
	ID              string      `json:"id"`
	Type            FindingType `json:"type"`
	SourceID        string      `json:"source_id"`
	Severity        Severity    `json:"severity"`
	Score           float64     `json:"score"`
	Threshold       float64     `json:"threshold,omitempty"`
	Description     string      `json:"description"`
	SuggestedAction Action      `json:"suggested_action"`
	DetectedAt      time.Time   `json:"detected_at"`
}

// RemediationPlan lists the automated responses suggested for a finding type.
type RemediationPlan struct {
	Actions  []string `json:"actions"`
	Scripts  []string `json:"scripts"`
	Priority Severity `json:"priority"`
}
