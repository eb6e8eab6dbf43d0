package engine

import "github.com/pulseguard/pulse-sentinel/internal/models"

var remediationCatalog = map[models.FindingType]models.RemediationPlan{
	models.FindingCPUThreshold: {
		Actions: []string{
			"kill_high_cpu_processes",
			"restart_services",
			"scale_horizontally",
		},
		Scripts:  []string{"kill_top_cpu_process.sh", "restart_critical_services.sh"},
		Priority: models.SeverityHigh,
	},
	models.FindingMemoryThreshold: {
		Actions: []string{
			"clear_cache",
			"restart_memory_intensive_services",
			"enable_swap",
		},
		Scripts:  []string{"clear_system_cache.sh", "restart_services.sh"},
		Priority: models.SeverityHigh,
	},
	models.FindingDiskThreshold: {
		Actions: []string{
			"cleanup_temp_files",
			"rotate_logs",
			"compress_old_files",
		},
		Scripts:  []string{"disk_cleanup.sh", "log_rotation.sh"},
		Priority: models.SeverityCritical,
	},
	models.FindingNetworkLatency: {
		Actions: []string{
			"restart_network_services",
			"flush_dns_cache",
			"check_firewall_rules",
		},
		Scripts:  []string{"network_reset.sh", "dns_flush.sh"},
		Priority: models.SeverityMedium,
	},
	models.FindingMemoryLeak: {
		Actions: []string{
			"restart_suspected_services",
			"dump_memory_analysis",
			"enable_memory_monitoring",
		},
		Scripts:  []string{"restart_leaky_services.sh", "memory_dump.sh"},
		Priority: models.SeverityHigh,
	},
}

// RemediationFor returns the suggested remediation plan for a finding type.
// Types without a catalog entry fall back to manual investigation.
func RemediationFor(findingType models.FindingType) models.RemediationPlan {
	if plan, ok := remediationCatalog[findingType]; ok {
		return plan
	}
	return models.RemediationPlan{
		Actions:  []string{"manual_investigation"},
		Scripts:  []string{},
		Priority: models.SeverityLow,
	}
}
