// Package detectors holds the pluggable anomaly detection strategies run by
// the engine on every ingested snapshot. Detectors are best-effort and never
// fatal: insufficient history, absent metric groups, and fit failures all
// yield an empty result rather than an error.
package detectors

import (
	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

// Detector scores one snapshot against the source's recent history.
// Implementations must not mutate the buffer and hold no per-source state;
// anything they need is refit from the window on each call.
type Detector interface {
	Name() string
	Detect(snap models.Snapshot, window *telemetry.Buffer) []models.Finding
}
