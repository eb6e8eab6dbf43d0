package detectors

import (
	"testing"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

func steadySystemSnapshot(i int) models.Snapshot {
	jitter := float64(i % 5)
	return models.Snapshot{
		SourceID:  "host-1",
		Timestamp: time.Unix(int64(i), 0),
		CPU: models.MetricGroup{
			"usage_percent": 20 + jitter,
			"load_avg_1m":   1 + jitter*0.1,
			"load_avg_5m":   1,
		},
		Memory: models.MetricGroup{
			"usage_percent": 40 + jitter,
			"available_mb":  8000 - jitter*10,
		},
		Disk: models.MetricGroup{
			"usage_percent": 55,
		},
	}
}

func TestOutlierDetectorRequiresHistory(t *testing.T) {
	buf := telemetry.NewBuffer(1000)
	for i := 0; i < 20; i++ {
		buf.Append(steadySystemSnapshot(i))
	}

	detector := NewSystemOutlierDetector(nil)
	snap, _ := buf.Latest()
	if findings := detector.Detect(snap, buf); len(findings) != 0 {
		t.Fatalf("expected no findings below minimum history, got %d", len(findings))
	}
}

func TestOutlierDetectorFlagsSpike(t *testing.T) {
	buf := telemetry.NewBuffer(1000)
	for i := 0; i < 60; i++ {
		buf.Append(steadySystemSnapshot(i))
	}

	spike := models.Snapshot{
		SourceID:  "host-1",
		Timestamp: time.Unix(61, 0),
		CPU: models.MetricGroup{
			"usage_percent": 99,
			"load_avg_1m":   40,
			"load_avg_5m":   35,
		},
		Memory: models.MetricGroup{
			"usage_percent": 97,
			"available_mb":  50,
		},
		Disk: models.MetricGroup{
			"usage_percent": 99,
		},
	}
	buf.Append(spike)

	detector := NewSystemOutlierDetector(nil)
	findings := detector.Detect(spike, buf)

	if len(findings) != 1 {
		t.Fatalf("expected the spike to be flagged, got %d findings", len(findings))
	}
	f := findings[0]
	if f.Type != models.FindingSystemAnomaly {
		t.Fatalf("unexpected type %s", f.Type)
	}
	if f.Score >= 0 {
		t.Fatalf("expected a negative decision score, got %v", f.Score)
	}
	if f.Severity != models.SeverityMedium && f.Severity != models.SeverityHigh {
		t.Fatalf("unexpected severity %s", f.Severity)
	}
}

func TestOutlierDetectorStatelessAcrossSources(t *testing.T) {
	noisy := telemetry.NewBuffer(1000)
	for i := 0; i < 60; i++ {
		noisy.Append(steadySystemSnapshot(i))
	}
	spike := models.Snapshot{
		SourceID:  "host-1",
		Timestamp: time.Unix(61, 0),
		CPU: models.MetricGroup{
			"usage_percent": 99,
			"load_avg_1m":   40,
			"load_avg_5m":   35,
		},
		Memory: models.MetricGroup{
			"usage_percent": 97,
			"available_mb":  50,
		},
		Disk: models.MetricGroup{
			"usage_percent": 99,
		},
	}
	noisy.Append(spike)

	quiet := telemetry.NewBuffer(1000)
	for i := 0; i < 20; i++ {
		quiet.Append(steadySystemSnapshot(i))
	}

	detector := NewSystemOutlierDetector(nil)
	if findings := detector.Detect(spike, noisy); len(findings) != 1 {
		t.Fatalf("expected the spike to be flagged, got %d findings", len(findings))
	}

	// The fit on the noisy window must not leak into another source's
	// evaluation: the quiet window is still below minimum history.
	snap, _ := quiet.Latest()
	if findings := detector.Detect(snap, quiet); len(findings) != 0 {
		t.Fatalf("expected no findings for the short quiet window, got %d", len(findings))
	}

	if findings := detector.Detect(spike, noisy); len(findings) != 1 {
		t.Fatalf("expected the spike to be flagged again, got %d findings", len(findings))
	}
}

func TestOutlierDetectorSkipsAbsentFamily(t *testing.T) {
	buf := telemetry.NewBuffer(1000)
	for i := 0; i < 60; i++ {
		buf.Append(steadySystemSnapshot(i))
	}

	detector := NewNetworkOutlierDetector(nil)
	snap, _ := buf.Latest()
	if findings := detector.Detect(snap, buf); len(findings) != 0 {
		t.Fatalf("expected no network findings without a network group, got %d", len(findings))
	}
}
