package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/pulseguard/pulse-sentinel/internal/models"
)

func snapshotN(i int) models.Snapshot {
	return models.Snapshot{
		SourceID:  "host-1",
		Timestamp: time.Unix(int64(i), 0),
		CPU:       models.MetricGroup{"usage_percent": float64(i)},
	}
}

func TestBufferEvictsOldest(t *testing.T) {
	buf := NewBuffer(5)
	for i := 0; i < 8; i++ {
		buf.Append(snapshotN(i))
	}

	if buf.Len() != 5 {
		t.Fatalf("expected length 5, got %d", buf.Len())
	}

	recent := buf.Recent(5)
	for i, snap := range recent {
		want := float64(i + 3)
		if got := snap.CPU.Field("usage_percent"); got != want {
			t.Fatalf("position %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestBufferRecentOrdering(t *testing.T) {
	buf := NewBuffer(100)
	for i := 0; i < 10; i++ {
		buf.Append(snapshotN(i))
	}

	recent := buf.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	if recent[2].CPU.Field("usage_percent") != 9 {
		t.Fatalf("expected most recent last, got %v", recent[2].CPU)
	}

	if got := buf.Recent(50); len(got) != 10 {
		t.Fatalf("oversized request should return full window, got %d", len(got))
	}
}

func TestBufferWrapsRepeatedly(t *testing.T) {
	buf := NewBuffer(4)
	// Wrap the ring several times over.
	for i := 0; i < 11; i++ {
		buf.Append(snapshotN(i))
	}

	if buf.Len() != 4 {
		t.Fatalf("expected length 4, got %d", buf.Len())
	}

	latest, ok := buf.Latest()
	if !ok || latest.CPU.Field("usage_percent") != 10 {
		t.Fatalf("expected latest 10, got %v (ok=%v)", latest.CPU, ok)
	}

	recent := buf.Recent(4)
	for i, snap := range recent {
		want := float64(i + 7)
		if got := snap.CPU.Field("usage_percent"); got != want {
			t.Fatalf("position %d: expected %v, got %v", i, want, got)
		}
	}

	// Partial reads mid-wrap keep most-recent-last ordering.
	tail := buf.Recent(2)
	if tail[0].CPU.Field("usage_percent") != 9 || tail[1].CPU.Field("usage_percent") != 10 {
		t.Fatalf("unexpected tail ordering: %v %v", tail[0].CPU, tail[1].CPU)
	}
}

func TestBufferEmpty(t *testing.T) {
	buf := NewBuffer(10)
	if got := buf.Recent(5); got != nil {
		t.Fatalf("expected nil from empty buffer, got %v", got)
	}
	if _, ok := buf.Latest(); ok {
		t.Fatalf("expected no latest snapshot")
	}
}

func TestRegistryIsolatesSources(t *testing.T) {
	reg := NewRegistry(10)

	for i := 0; i < 4; i++ {
		src := fmt.Sprintf("host-%d", i%2)
		buf := reg.Buffer(src)
		buf.Append(models.Snapshot{SourceID: src, Timestamp: time.Now()})
	}

	a, _ := reg.Lookup("host-0")
	b, _ := reg.Lookup("host-1")
	if a == b {
		t.Fatalf("expected distinct buffers per source")
	}
	if a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("expected 2 entries each, got %d and %d", a.Len(), b.Len())
	}

	sources := reg.Sources()
	if len(sources) != 2 || sources[0] != "host-0" || sources[1] != "host-1" {
		t.Fatalf("unexpected sources: %v", sources)
	}
}
