package kdpool

import (
	"github.com/hupe1980/kdpool/kdtree"
	"github.com/hupe1980/kdpool/resource"
)

// Builder is an immutable fluent builder for Index.
// Each method returns a new builder with the updated configuration.
//
// Example:
//
//	idx, err := kdpool.NewBuilder[*pool.Point](points, points).
//	    RefTraversal().
//	    OffHeap().
//	    Resources(resource.Config{MaxWorkers: 4}).
//	    Build()
type Builder[O kdtree.RealPoint] struct {
	objects    kdtree.Collection[O]
	objectPool kdtree.ObjectPool[O]
	traversal  kdtree.Traversal
	offHeap    bool
	logger     *Logger
	metrics    MetricsCollector
	controller *resource.Controller
}

// NewBuilder creates a builder over objects, whose indices refer to objectPool.
func NewBuilder[O kdtree.RealPoint](objects kdtree.Collection[O], objectPool kdtree.ObjectPool[O]) Builder[O] {
	return Builder[O]{
		objects:    objects,
		objectPool: objectPool,
		traversal:  kdtree.TraversalFlat,
	}
}

// FlatTraversal walks the node pool's flat backing slice. This is the default.
func (b Builder[O]) FlatTraversal() Builder[O] {
	b.traversal = kdtree.TraversalFlat
	return b
}

// RefTraversal walks the tree through node refs.
func (b Builder[O]) RefTraversal() Builder[O] {
	b.traversal = kdtree.TraversalRef
	return b
}

// OffHeap keeps the node pool outside the Go heap.
func (b Builder[O]) OffHeap() Builder[O] {
	b.offHeap = true
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder[O]) Logger(l *Logger) Builder[O] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder[O]) Metrics(mc MetricsCollector) Builder[O] {
	b.metrics = mc
	return b
}

// Controller shares an existing resource controller with other indexes.
func (b Builder[O]) Controller(c *resource.Controller) Builder[O] {
	b.controller = c
	return b
}

// Resources creates a dedicated resource controller from cfg.
func (b Builder[O]) Resources(cfg resource.Config) Builder[O] {
	b.controller = resource.NewController(cfg)
	return b
}

// Build constructs the index.
func (b Builder[O]) Build() (*Index[O], error) {
	opts := []Option{WithTraversal(b.traversal)}
	if b.offHeap {
		opts = append(opts, WithOffHeap())
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.controller != nil {
		opts = append(opts, WithResourceController(b.controller))
	}

	return New(b.objects, b.objectPool, opts...)
}

// MustBuild constructs the index, panicking on error.
// Use this only in tests or when the input is known to be valid.
func (b Builder[O]) MustBuild() *Index[O] {
	idx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return idx
}
