package kdpool

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
// PrometheusMetricsCollector is a ready-made Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after the tree is built.
	// size is the number of nodes, err is nil if successful.
	RecordBuild(size int, duration time.Duration, err error)

	// RecordSearch is called after each nearest-neighbor search.
	RecordSearch(duration time.Duration, err error)

	// RecordBatchSearch is called after each batch search.
	// count is the number of queries, completed the number that finished.
	RecordBatchSearch(count, completed int, duration time.Duration)

	// RecordSplit is called after each hyperplane split.
	RecordSplit(duration time.Duration, err error)

	// RecordClip is called after each polytope clip.
	// planes is the number of half-spaces of the polytope.
	RecordClip(planes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSearch(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchSearch(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordSplit(time.Duration, error)          {}
func (NoopMetricsCollector) RecordClip(int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount         atomic.Int64
	BuildErrors        atomic.Int64
	BuildNodes         atomic.Int64
	SearchCount        atomic.Int64
	SearchErrors       atomic.Int64
	SearchTotalNanos   atomic.Int64
	BatchSearchCount   atomic.Int64
	BatchSearchQueries atomic.Int64
	BatchSearchAborted atomic.Int64
	SplitCount         atomic.Int64
	SplitErrors        atomic.Int64
	SplitTotalNanos    atomic.Int64
	ClipCount          atomic.Int64
	ClipErrors         atomic.Int64
	ClipPlanes         atomic.Int64
	ClipTotalNanos     atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(size int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildNodes.Add(int64(size))
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordBatchSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchSearch(count, completed int, duration time.Duration) {
	b.BatchSearchCount.Add(1)
	b.BatchSearchQueries.Add(int64(count))
	if completed < count {
		b.BatchSearchAborted.Add(1)
	}
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(duration time.Duration, err error) {
	b.SplitCount.Add(1)
	b.SplitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SplitErrors.Add(1)
	}
}

// RecordClip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClip(planes int, duration time.Duration, err error) {
	b.ClipCount.Add(1)
	b.ClipPlanes.Add(int64(planes))
	b.ClipTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClipErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:         b.BuildCount.Load(),
		BuildErrors:        b.BuildErrors.Load(),
		BuildNodes:         b.BuildNodes.Load(),
		SearchCount:        b.SearchCount.Load(),
		SearchErrors:       b.SearchErrors.Load(),
		SearchAvgNanos:     avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		BatchSearchCount:   b.BatchSearchCount.Load(),
		BatchSearchQueries: b.BatchSearchQueries.Load(),
		BatchSearchAborted: b.BatchSearchAborted.Load(),
		SplitCount:         b.SplitCount.Load(),
		SplitErrors:        b.SplitErrors.Load(),
		SplitAvgNanos:      avg(b.SplitTotalNanos.Load(), b.SplitCount.Load()),
		ClipCount:          b.ClipCount.Load(),
		ClipErrors:         b.ClipErrors.Load(),
		ClipAvgNanos:       avg(b.ClipTotalNanos.Load(), b.ClipCount.Load()),
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
	BuildCount         int64
	BuildErrors        int64
	BuildNodes         int64
	SearchCount        int64
	SearchErrors       int64
	SearchAvgNanos     int64
	BatchSearchCount   int64
	BatchSearchQueries int64
	BatchSearchAborted int64
	SplitCount         int64
	SplitErrors        int64
	SplitAvgNanos      int64
	ClipCount          int64
	ClipErrors         int64
	ClipAvgNanos       int64
}
