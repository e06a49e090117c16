package kdpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opLabel     = "op"
	statusLabel = "status"

	statusOK    = "ok"
	statusError = "error"
)

// PrometheusMetricsCollector exports index metrics to Prometheus.
type PrometheusMetricsCollector struct {
	ops        *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	builtNodes prometheus.Gauge
	batchSize  prometheus.Histogram
	batchAbort prometheus.Counter
	clipPlanes prometheus.Histogram
}

// NewPrometheusMetricsCollector registers the index metrics on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetricsCollector(reg prometheus.Registerer, namespace string) *PrometheusMetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusMetricsCollector{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "The number of index operations.",
		}, []string{opLabel, statusLabel}),

		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "The time to run an index operation.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{opLabel}),

		builtNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "The number of nodes of the last built tree.",
		}),

		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_search_queries",
			Help:      "The number of queries per batch search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		batchAbort: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_search_aborted_total",
			Help:      "The number of batch searches that stopped before completing every query.",
		}),

		clipPlanes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clip_planes",
			Help:      "The number of half-spaces per clip.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}
}

// RecordBuild implements MetricsCollector.
func (p *PrometheusMetricsCollector) RecordBuild(size int, duration time.Duration, err error) {
	p.observe("build", duration, err != nil)
	if err == nil {
		p.builtNodes.Set(float64(size))
	}
}

// RecordSearch implements MetricsCollector.
func (p *PrometheusMetricsCollector) RecordSearch(duration time.Duration, err error) {
	p.observe("search", duration, err != nil)
}

// RecordBatchSearch implements MetricsCollector.
func (p *PrometheusMetricsCollector) RecordBatchSearch(count, completed int, duration time.Duration) {
	aborted := completed < count
	if aborted {
		p.batchAbort.Inc()
	}
	p.observe("batch_search", duration, aborted)
	p.batchSize.Observe(float64(count))
}

// RecordSplit implements MetricsCollector.
func (p *PrometheusMetricsCollector) RecordSplit(duration time.Duration, err error) {
	p.observe("split", duration, err != nil)
}

// RecordClip implements MetricsCollector.
func (p *PrometheusMetricsCollector) RecordClip(planes int, duration time.Duration, err error) {
	p.observe("clip", duration, err != nil)
	p.clipPlanes.Observe(float64(planes))
}

func (p *PrometheusMetricsCollector) observe(op string, duration time.Duration, failed bool) {
	status := statusOK
	if failed {
		status = statusError
	}

	p.ops.With(prometheus.Labels{
		opLabel:     op,
		statusLabel: status,
	}).Inc()

	p.latency.With(prometheus.Labels{
		opLabel: op,
	}).Observe(duration.Seconds())
}
