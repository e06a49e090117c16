package kdpool

import (
	"log/slog"

	"github.com/hupe1980/kdpool/kdtree"
	"github.com/hupe1980/kdpool/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
	traversal        kdtree.Traversal
	offHeap          bool
}

// Option configures Index construction.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kdpool.BasicMetricsCollector{}
//	idx, _ := kdpool.New[*pool.Point](points, points, kdpool.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kdpool.NewJSONLogger(slog.LevelInfo)
//	idx, _ := kdpool.New[*pool.Point](points, points, kdpool.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds node pool memory, batch workers and batch
// query rate. The controller may be shared between indexes.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithTraversal selects how queries walk the tree. Defaults to kdtree.TraversalFlat.
func WithTraversal(t kdtree.Traversal) Option {
	return func(o *options) {
		o.traversal = t
	}
}

// WithOffHeap keeps the node pool in anonymous mapped memory outside the Go heap.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		traversal:        kdtree.TraversalFlat,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
