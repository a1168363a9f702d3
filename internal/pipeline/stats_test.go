package pipeline

import (
	"testing"
	"time"
)

func TestScanStatsSnapshotPercentiles(t *testing.T) {
	stats := NewScanStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, 10)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Pages != 50 {
		t.Fatalf("expected pages=50, got %d", snap.Pages)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.MsPerPage != 30 {
		t.Fatalf("expected ms_per_page=30, got %f", snap.MsPerPage)
	}
}

func TestScanStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewScanStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 1)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200*time.Millisecond, 0)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MsPerPage != 0 {
		t.Fatalf("expected ms_per_page=0 without pages, got %f", snap.MsPerPage)
	}
}

func TestScanStatsClampsNegativeDuration(t *testing.T) {
	stats := NewScanStats(time.Hour)
	stats.Record(-time.Second, -3)
	snap := stats.Snapshot()
	if snap.MinMs != 0 || snap.Pages != 0 {
		t.Fatalf("expected clamped values, got min=%d pages=%d", snap.MinMs, snap.Pages)
	}
}
