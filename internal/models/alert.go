package models

import "time"

// AlertStatus tracks the lifecycle state of an alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Alert is a deduplicated, stateful aggregate of findings sharing an
// identity key. Alerts are owned exclusively by the alert manager.
type Alert struct {
	Key             string      `json:"key"`
	Type            FindingType `json:"type"`
	SourceID        string      `json:"source_id"`
	Severity        Severity    `json:"severity"`
	Description     string      `json:"description"`
	SuggestedAction Action      `json:"suggested_action"`
	Status          AlertStatus `json:"status"`
	Count           int         `json:"count"`
	FirstSeen       time.Time   `json:"first_seen"`
	LastSeen        time.Time   `json:"last_seen"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
}

// AlertKey builds the identity key used to deduplicate alerts.
func AlertKey(t FindingType, sourceID string) string {
	if sourceID == "" {
		sourceID = "unknown"
	}
	return string(t) + ":" + sourceID
}
