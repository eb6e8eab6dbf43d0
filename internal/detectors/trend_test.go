package detectors

import (
	"testing"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
)

func fillCPU(buf *telemetry.Buffer, values []float64) {
	base := time.Now().Add(-time.Duration(len(values)) * time.Second)
	for i, v := range values {
		buf.Append(models.Snapshot{
			SourceID:  "host-1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			CPU:       models.MetricGroup{"usage_percent": v},
		})
	}
}

func fillMemory(buf *telemetry.Buffer, values []float64) {
	base := time.Now().Add(-time.Duration(len(values)) * time.Second)
	for i, v := range values {
		buf.Append(models.Snapshot{
			SourceID:  "host-1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Memory:    models.MetricGroup{"usage_percent": v},
		})
	}
}

func TestTrendDetectorRapidCPUIncrease(t *testing.T) {
	buf := telemetry.NewBuffer(100)
	values := make([]float64, 0, 15)
	for i := 0; i < 10; i++ {
		values = append(values, 10)
	}
	for i := 0; i < 5; i++ {
		values = append(values, 45)
	}
	fillCPU(buf, values)

	detector := NewTrendDetector()
	snap, _ := buf.Latest()
	findings := detector.Detect(snap, buf)

	if len(findings) != 1 {
		t.Fatalf("expected one finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != models.FindingCPUTrend {
		t.Fatalf("unexpected type %s", f.Type)
	}
	if f.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %s", f.Severity)
	}
	if f.Score != 35 {
		t.Fatalf("expected delta 35, got %v", f.Score)
	}
}

func TestTrendDetectorFlatCPU(t *testing.T) {
	buf := telemetry.NewBuffer(100)
	values := make([]float64, 15)
	for i := range values {
		values[i] = 10
	}
	fillCPU(buf, values)

	detector := NewTrendDetector()
	snap, _ := buf.Latest()
	if findings := detector.Detect(snap, buf); len(findings) != 0 {
		t.Fatalf("expected no findings for flat series, got %d", len(findings))
	}
}

func TestTrendDetectorMemoryLeak(t *testing.T) {
	buf := telemetry.NewBuffer(100)
	values := make([]float64, 0, 10)
	for i := 0; i < 10; i++ {
		values = append(values, 20+float64(i)*3) // +3%/sample, above the leak slope
	}
	fillMemory(buf, values)

	detector := NewTrendDetector()
	snap, _ := buf.Latest()
	findings := detector.Detect(snap, buf)

	if len(findings) != 1 {
		t.Fatalf("expected one finding, got %d", len(findings))
	}
	if findings[0].Type != models.FindingMemoryLeak {
		t.Fatalf("unexpected type %s", findings[0].Type)
	}
	if findings[0].Score <= 2 {
		t.Fatalf("expected slope above 2, got %v", findings[0].Score)
	}
}

func TestTrendDetectorInsufficientHistory(t *testing.T) {
	buf := telemetry.NewBuffer(100)
	fillCPU(buf, []float64{10, 20, 80})

	detector := NewTrendDetector()
	snap, _ := buf.Latest()
	if findings := detector.Detect(snap, buf); len(findings) != 0 {
		t.Fatalf("expected no findings with sparse history, got %d", len(findings))
	}
}
