package cascade

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordIndexBuild is called after each hash index construction.
	// bytes is the index memory footprint, err is nil if successful.
	RecordIndexBuild(descriptors int, bytes int64, duration time.Duration, err error)

	// RecordPair is called after each matched pair with the number of
	// correspondences that survived filtering.
	RecordPair(correspondences int, duration time.Duration)

	// RecordSkip is called for each pair that was not matched.
	RecordSkip(reason SkipReason)

	// RecordJob is called once per MatchAll call.
	RecordJob(pairs int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordPair(int, time.Duration)                    {}
func (NoopMetricsCollector) RecordSkip(SkipReason)                            {}
func (NoopMetricsCollector) RecordJob(int, time.Duration, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexBuilds       atomic.Int64
	IndexBuildErrors  atomic.Int64
	IndexBytes        atomic.Int64
	IndexTotalNanos   atomic.Int64
	PairsMatched      atomic.Int64
	PairsEmpty        atomic.Int64
	Correspondences   atomic.Int64
	PairTotalNanos    atomic.Int64
	SkipsKindMismatch atomic.Int64
	SkipsEmpty        atomic.Int64
	Jobs              atomic.Int64
	JobErrors         atomic.Int64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ int, bytes int64, duration time.Duration, err error) {
	if err != nil {
		b.IndexBuildErrors.Add(1)
		return
	}
	b.IndexBuilds.Add(1)
	b.IndexBytes.Add(bytes)
	b.IndexTotalNanos.Add(duration.Nanoseconds())
}

// RecordPair implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPair(correspondences int, duration time.Duration) {
	b.PairsMatched.Add(1)
	if correspondences == 0 {
		b.PairsEmpty.Add(1)
	}
	b.Correspondences.Add(int64(correspondences))
	b.PairTotalNanos.Add(duration.Nanoseconds())
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip(reason SkipReason) {
	switch reason {
	case SkipKindMismatch:
		b.SkipsKindMismatch.Add(1)
	case SkipEmpty:
		b.SkipsEmpty.Add(1)
	}
}

// RecordJob implements MetricsCollector.
func (b *BasicMetricsCollector) RecordJob(_ int, _ time.Duration, err error) {
	b.Jobs.Add(1)
	if err != nil {
		b.JobErrors.Add(1)
	}
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) Stats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexBuilds:       b.IndexBuilds.Load(),
		IndexBuildErrors:  b.IndexBuildErrors.Load(),
		IndexBytes:        b.IndexBytes.Load(),
		IndexAvgNanos:     avg(b.IndexTotalNanos.Load(), b.IndexBuilds.Load()),
		PairsMatched:      b.PairsMatched.Load(),
		PairsEmpty:        b.PairsEmpty.Load(),
		Correspondences:   b.Correspondences.Load(),
		PairAvgNanos:      avg(b.PairTotalNanos.Load(), b.PairsMatched.Load()),
		SkipsKindMismatch: b.SkipsKindMismatch.Load(),
		SkipsEmpty:        b.SkipsEmpty.Load(),
		Jobs:              b.Jobs.Load(),
		JobErrors:         b.JobErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexBuilds       int64
	IndexBuildErrors  int64
	IndexBytes        int64
	IndexAvgNanos     int64
	PairsMatched      int64
	PairsEmpty        int64
	Correspondences   int64
	PairAvgNanos      int64
	SkipsKindMismatch int64
	SkipsEmpty        int64
	Jobs              int64
	JobErrors         int64
}
