package pipeline

import (
	"slices"
	"sync"
	"time"
)

type scanSample struct {
	at         time.Time
	durationMs int64
	pages      int
}

// StatsSnapshot aggregates recent per-document scan timings.
type StatsSnapshot struct {
	Count     int     `json:"count"`
	Pages     int     `json:"pages"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	MsPerPage float64 `json:"ms_per_page"`
}

// ScanStats keeps document scan durations within a rolling window.
type ScanStats struct {
	mu      sync.Mutex
	samples []scanSample
	window  time.Duration
}

func NewScanStats(window time.Duration) *ScanStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ScanStats{
		samples: make([]scanSample, 0, 64),
		window:  window,
	}
}

// Record adds one document scan that read the given number of pages.
func (s *ScanStats) Record(d time.Duration, pages int) {
	ms := max(d.Milliseconds(), 0)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, scanSample{at: now, durationMs: ms, pages: max(pages, 0)})
}

func (s *ScanStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	pages := 0
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		pages += sm.pages
	}
	slices.Sort(values)

	snap := StatsSnapshot{
		Count: len(values),
		Pages: pages,
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	if pages > 0 {
		snap.MsPerPage = float64(sum) / float64(pages)
	}
	return snap
}

func (s *ScanStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm scanSample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
