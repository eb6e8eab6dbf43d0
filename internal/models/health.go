package models

// HealthStatus summarises the overall state of one source.
type HealthStatus string

const (
	HealthHealthy          HealthStatus = "healthy"
	HealthWarning          HealthStatus = "warning"
	HealthCritical         HealthStatus = "critical"
	HealthInsufficientData HealthStatus = "insufficient_data"
)

// HealthIssue describes one component problem found by the health gauge.
type HealthIssue struct {
	Component string  `json:"component"`
	Issue     string  `json:"issue"`
	Value     float64 `json:"value"`
	Impact    string  `json:"impact,omitempty"`
}

// HealthReport is the synchronous health gauge computed from the latest
// buffered snapshot of a source.
type HealthReport struct {
	SourceID        string             `json:"source_id"`
	Status          HealthStatus       `json:"status"`
	CriticalIssues  []HealthIssue      `json:"critical_issues"`
	Warnings        []HealthIssue      `json:"warnings"`
	OverallScore    int                `json:"overall_score"`
	ComponentScores map[string]float64 `json:"component_scores"`
}

// FailurePrediction extrapolates a rising resource toward its failure
// threshold. TimeToFailure is expressed in sample intervals.
type FailurePrediction struct {
	TimeToFailure int     `json:"time_to_failure"`
	Confidence    float64 `json:"confidence"`
	CurrentUsage  float64 `json:"current_usage"`
	Trend         float64 `json:"trend"`
}

// FailureForecast groups per-resource predictions; a nil entry means no
// failure is forecast within the bounded horizon.
type FailureForecast struct {
	SourceID string             `json:"source_id"`
	Disk     *FailurePrediction `json:"disk_full_prediction"`
	Memory   *FailurePrediction `json:"memory_exhaustion_prediction"`
}

// TrendSummary describes the recent direction of one resource.
type TrendSummary struct {
	Direction string  `json:"direction"`
	Change    float64 `json:"change"`
	Average   float64 `json:"average"`
}

// PerformanceInsights aggregates trend analysis over recent history.
type PerformanceInsights struct {
	SourceID        string                  `json:"source_id"`
	Insights        []string                `json:"insights"`
	Recommendations []string                `json:"recommendations"`
	Trends          map[string]TrendSummary `json:"trends"`
	EfficiencyScore int                     `json:"efficiency_score"`
}
