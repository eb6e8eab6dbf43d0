package detectors

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulseguard/pulse-sentinel/internal/features"
	"github.com/pulseguard/pulse-sentinel/internal/ml"
	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

// minTrainingVectors is the floor of extractable feature vectors below which
// a fit is statistically meaningless regardless of buffered history.
const minTrainingVectors = 10

// OutlierDetector scores snapshots with an isolation forest refit on the
// most recent window slice every call, so the model tracks the current
// operating regime instead of a stale baseline. The detector holds no model
// state between calls; the fit cost is bounded by the window size and runs
// at telemetry cadence.
type OutlierDetector struct {
	family        features.Family
	findingType   models.FindingType
	action        models.Action
	description   string
	minHistory    int
	numTrees      int
	contamination float64
	highCutoff    float64
	logger        *slog.Logger
}

// NewSystemOutlierDetector builds the outlier detector for the system
// feature family (cpu/memory/disk).
func NewSystemOutlierDetector(logger *slog.Logger) *OutlierDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlierDetector{
		family:        features.FamilySystem,
		findingType:   models.FindingSystemAnomaly,
		action:        models.ActionInvestigateSystem,
		description:   "Unusual system behavior detected by outlier model",
		minHistory:    50,
		numTrees:      100,
		contamination: 0.10,
		highCutoff:    -0.5,
		logger:        logger,
	}
}

// NewNetworkOutlierDetector builds the outlier detector for the network
// feature family.
func NewNetworkOutlierDetector(logger *slog.Logger) *OutlierDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlierDetector{
		family:        features.FamilyNetwork,
		findingType:   models.FindingNetworkAnomaly,
		action:        models.ActionCheckNetwork,
		description:   "Unusual network behavior detected by outlier model",
		minHistory:    30,
		numTrees:      50,
		contamination: 0.05,
		highCutoff:    -0.3,
		logger:        logger,
	}
}

// Name identifies the detector in logs and metrics.
func (d *OutlierDetector) Name() string {
	return fmt.Sprintf("outlier_%s", d.family)
}

// Detect refits the ensemble on the last minHistory samples and scores the
// current snapshot's vector against the fresh fit.
func (d *OutlierDetector) Detect(snap models.Snapshot, window *telemetry.Buffer) []models.Finding {
	current, ok := features.Extract(snap, d.family)
	if !ok {
		return nil
	}
	if window.Len() < d.minHistory {
		return nil
	}

	// Recent copies the slice, so the fit below runs without holding the
	// buffer lock.
	slice := window.Recent(d.minHistory)
	training := make([][]float64, 0, len(slice))
	for _, hist := range slice {
		vec, ok := features.Extract(hist, d.family)
		if !ok {
			continue
		}
		training = append(training, vec)
	}
	if len(training) <= minTrainingVectors {
		return nil
	}

	scaler := ml.FitScaler(training)
	forest := ml.NewForest(d.numTrees, d.contamination, time.Now().UnixNano())
	if err := forest.Fit(scaler.TransformAll(training)); err != nil {
		d.logger.Debug("outlier fit failed", slog.String("family", string(d.family)), slog.Any("error", err))
		return nil
	}

	result := forest.Score(scaler.Transform(current))
	if !result.IsOutlier {
		return nil
	}

	severity := models.SeverityMedium
	if result.Score < d.highCutoff {
		severity = models.SeverityHigh
	}

	return []models.Finding{{
		ID:              uuid.NewString(),
		Type:            d.findingType,
		SourceID:        snap.SourceID,
		Severity:        severity,
		Score:           result.Score,
		Description:     d.description,
		SuggestedAction: d.action,
		DetectedAt:      snap.Timestamp,
	}}
}
