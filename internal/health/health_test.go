package health

import (
	"context"
	"errors"
	"testing"
)

func TestSnapshot_AllHealthyWhenEveryProbeSucceeds(t *testing.T) {
	p := NewProber()
	p.Register("store", func(ctx context.Context) error { return nil })
	p.Register("embedder", func(ctx context.Context) error { return nil })

	healthy, statuses := p.Snapshot()
	if !healthy {
		t.Fatal("expected overall healthy=true")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "embedder" || statuses[1].Name != "store" {
		t.Errorf("expected statuses sorted by name, got %+v", statuses)
	}
}

func TestSnapshot_ReportsUnhealthyWhenAnyProbeFails(t *testing.T) {
	p := NewProber()
	p.Register("store", func(ctx context.Context) error { return nil })
	p.Register("embedder", func(ctx context.Context) error { return errors.New("unreachable") })

	healthy, statuses := p.Snapshot()
	if healthy {
		t.Fatal("expected overall healthy=false")
	}
	for _, s := range statuses {
		if s.Name == "embedder" && (s.Healthy || s.Error == "") {
			t.Errorf("expected embedder status to carry the failure, got %+v", s)
		}
	}
}

func TestLatencyStats_ReportsPercentilesAcrossSamples(t *testing.T) {
	stats := NewLatencyStats(0)
	for _, ms := range []int64{10, 20, 30, 40, 50} {
		stats.Record(ms)
	}
	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected 5 samples, got %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 50 {
		t.Errorf("expected min=10 max=50, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 30 {
		t.Errorf("expected avg=30, got %v", snap.AvgMs)
	}
	if snap.P50Ms != 30 {
		t.Errorf("expected p50=30, got %v", snap.P50Ms)
	}
	if diff := snap.P95Ms - 48; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected p95=48, got %v", snap.P95Ms)
	}
}

func TestLatencyStats_EmptySnapshotIsZeroValue(t *testing.T) {
	stats := NewLatencyStats(0)
	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Errorf("expected zero-value snapshot, got %+v", snap)
	}
}

func TestProber_LatencyStatsTracksRegisteredProbe(t *testing.T) {
	p := NewProber()
	p.Register("store", func(ctx context.Context) error { return nil })

	snap, ok := p.LatencyStats("store")
	if !ok {
		t.Fatal("expected latency stats for registered probe")
	}
	if snap.Count != 1 {
		t.Errorf("expected 1 sample after Register's initial run, got %d", snap.Count)
	}

	if _, ok := p.LatencyStats("unknown"); ok {
		t.Error("expected no latency stats for unregistered probe")
	}
}
