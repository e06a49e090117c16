package kdpool

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kdpool/kdtree"
	"github.com/hupe1980/kdpool/pool"
	"github.com/hupe1980/kdpool/resource"
)

// Neighbor is the result of a nearest-neighbor query.
type Neighbor struct {
	// DataIndex is the object pool index of the nearest object, or -1.
	DataIndex int
	// SquaredDistance is the squared Euclidean distance to the query, or +Inf.
	SquaredDistance float64
	// Found is false if the index holds no valid point.
	Found bool
}

// Stats describes an index.
type Stats struct {
	Size        int
	ValidSize   int
	Dimension   int
	Height      int
	Traversal   kdtree.Traversal
	OffHeap     bool
	MemoryUsage int64
}

// Index is a KD-tree over the objects of an object pool, safe for concurrent use.
//
// Queries only ever return valid points: Invalidate tombstones points
// without rebuilding the tree.
type Index[O kdtree.RealPoint] struct {
	mu     sync.RWMutex
	refMu  sync.Mutex // guards node pool ref creation for new query objects
	tree   *kdtree.Tree[O]
	dim    int
	closed bool

	traversal  kdtree.Traversal
	offHeap    bool
	controller *resource.Controller
	metrics    MetricsCollector
	logger     *Logger

	searches sync.Pool
	splits   sync.Pool
	clips    sync.Pool
}

// New builds an index over objects, whose indices refer to objectPool.
//
// The object pool is referenced, not copied: queries resolve results through
// it, so it must outlive the index and its objects must not move.
func New[O kdtree.RealPoint](objects kdtree.Collection[O], objectPool kdtree.ObjectPool[O], optFns ...Option) (*Index[O], error) {
	opts := applyOptions(optFns)
	start := time.Now()

	var poolOpts []pool.Option
	if opts.offHeap {
		poolOpts = append(poolOpts, pool.WithOffHeap())
	}
	if opts.controller != nil {
		poolOpts = append(poolOpts, pool.WithMemoryAcquirer(opts.controller))
	}

	tree, err := kdtree.Build(objects, objectPool, kdtree.WithNodePoolOptions(poolOpts...))
	err = translateError(err)
	opts.metricsCollector.RecordBuild(objects.Len(), time.Since(start), err)
	if err != nil {
		opts.logger.LogBuild(context.Background(), objects.Len(), 0, 0, time.Since(start), err)
		return nil, err
	}
	opts.logger.LogBuild(context.Background(), tree.Size(), tree.NumDimensions(), tree.Height(), time.Since(start), nil)

	idx := &Index[O]{
		tree:       tree,
		dim:        tree.NumDimensions(),
		traversal:  opts.traversal,
		offHeap:    opts.offHeap,
		controller: opts.controller,
		metrics:    opts.metricsCollector,
		logger:     opts.logger.WithDimension(tree.NumDimensions()),
	}

	queryOpts := []kdtree.QueryOption{kdtree.WithTraversal(opts.traversal), kdtree.OnlyValid()}
	idx.searches.New = func() any {
		idx.refMu.Lock()
		defer idx.refMu.Unlock()
		return kdtree.NewNearestNeighborSearch(idx.tree, queryOpts...)
	}
	idx.splits.New = func() any {
		idx.refMu.Lock()
		defer idx.refMu.Unlock()
		return kdtree.NewSplitHyperPlane(idx.tree, queryOpts...)
	}
	idx.clips.New = func() any {
		idx.refMu.Lock()
		defer idx.refMu.Unlock()
		return kdtree.NewClipConvexPolytope(idx.tree, queryOpts...)
	}

	return idx, nil
}

// Dimension returns the dimensionality of the indexed points, 0 if empty.
func (idx *Index[O]) Dimension() int { return idx.dim }

// Nearest returns the valid point closest to query.
// An empty index (or one without valid points) yields Found == false.
func (idx *Index[O]) Nearest(ctx context.Context, query []float64) (Neighbor, error) {
	start := time.Now()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.checkQuery(query); err != nil {
		idx.metrics.RecordSearch(time.Since(start), err)
		idx.logger.LogSearch(ctx, false, err)
		return Neighbor{DataIndex: -1, SquaredDistance: math.Inf(1)}, err
	}

	s := idx.searches.Get().(*kdtree.NearestNeighborSearch[O])
	nb := search(s, query)
	idx.searches.Put(s)

	idx.metrics.RecordSearch(time.Since(start), nil)
	idx.logger.LogSearch(ctx, nb.Found, nil)
	return nb, nil
}

// NearestBatch answers many nearest-neighbor queries in parallel.
//
// The number of workers and the query rate come from the resource
// controller. Results are in query order. On cancellation the partial
// results are discarded and the context error is returned.
func (idx *Index[O]) NearestBatch(ctx context.Context, queries [][]float64) ([]Neighbor, error) {
	start := time.Now()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, q := range queries {
		if err := idx.checkQuery(q); err != nil {
			idx.metrics.RecordBatchSearch(len(queries), 0, time.Since(start))
			idx.logger.LogBatchSearch(ctx, len(queries), 0, err)
			return nil, err
		}
	}

	results := make([]Neighbor, len(queries))
	var next, completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	workers := min(idx.controller.Workers(), len(queries))
	for range workers {
		g.Go(func() error {
			if err := idx.controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer idx.controller.ReleaseWorker()

			s := idx.searches.Get().(*kdtree.NearestNeighborSearch[O])
			defer idx.searches.Put(s)

			for {
				i := int(next.Add(1) - 1)
				if i >= len(queries) {
					return nil
				}
				if err := idx.controller.WaitQuery(gctx); err != nil {
					return err
				}
				results[i] = search(s, queries[i])
				completed.Add(1)
			}
		})
	}

	err := g.Wait()
	idx.metrics.RecordBatchSearch(len(queries), int(completed.Load()), time.Since(start))
	idx.logger.LogBatchSearch(ctx, len(queries), int(completed.Load()), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func search[O kdtree.RealPoint](s *kdtree.NearestNeighborSearch[O], query []float64) Neighbor {
	s.Search(query)
	return Neighbor{
		DataIndex:       s.BestDataIndex(),
		SquaredDistance: s.SquareDistance(),
		Found:           s.Found(),
	}
}

// Split partitions the valid points by plane into those with
// dot(plane.Normal, p) >= plane.Offset and the rest.
// Both bitmaps hold object pool indices.
func (idx *Index[O]) Split(ctx context.Context, plane kdtree.Hyperplane) (above, below *roaring.Bitmap, err error) {
	start := time.Now()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.checkPlanes([]kdtree.Hyperplane{plane}); err != nil {
		idx.metrics.RecordSplit(time.Since(start), err)
		idx.logger.LogSplit(ctx, 0, 0, err)
		return nil, nil, err
	}

	s := idx.splits.Get().(*kdtree.SplitHyperPlane[O])
	s.Split(plane)
	above, below = s.Above().ValidBitmap(), s.Below().ValidBitmap()
	idx.splits.Put(s)

	idx.metrics.RecordSplit(time.Since(start), nil)
	idx.logger.LogSplit(ctx, int(above.GetCardinality()), int(below.GetCardinality()), nil)
	return above, below, nil
}

// Clip partitions the valid points into those inside the convex polytope
// bounded by planes and the rest. With no planes every point is inside.
// Both bitmaps hold object pool indices.
func (idx *Index[O]) Clip(ctx context.Context, planes []kdtree.Hyperplane) (inside, outside *roaring.Bitmap, err error) {
	start := time.Now()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.checkPlanes(planes); err != nil {
		idx.metrics.RecordClip(len(planes), time.Since(start), err)
		idx.logger.LogClip(ctx, len(planes), 0, 0, err)
		return nil, nil, err
	}

	c := idx.clips.Get().(*kdtree.ClipConvexPolytope[O])
	c.Clip(planes)
	inside, outside = c.Inside().ValidBitmap(), c.Outside().ValidBitmap()
	idx.clips.Put(c)

	idx.metrics.RecordClip(len(planes), time.Since(start), nil)
	idx.logger.LogClip(ctx, len(planes), int(inside.GetCardinality()), int(outside.GetCardinality()), nil)
	return inside, outside, nil
}

// Invalidate tombstones the points whose object pool indices are in
// dataIndices and returns how many points changed. Tombstoned points stay
// in the tree but are never returned by queries.
func (idx *Index[O]) Invalidate(ctx context.Context, dataIndices *roaring.Bitmap) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return 0, ErrClosed
	}

	changed := idx.tree.InvalidateData(dataIndices)
	requested := 0
	if dataIndices != nil {
		requested = int(dataIndices.GetCardinality())
	}
	idx.logger.LogInvalidate(ctx, requested, changed)
	return changed, nil
}

// Invalid returns the object pool indices of all tombstoned points.
func (idx *Index[O]) Invalid() (*roaring.Bitmap, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}
	return idx.tree.InvalidData(), nil
}

// Stats returns a snapshot of the index shape.
func (idx *Index[O]) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	st := Stats{
		Dimension: idx.dim,
		Traversal: idx.traversal,
		OffHeap:   idx.offHeap,
	}
	if idx.closed {
		return st
	}
	st.Size = idx.tree.Size()
	st.ValidSize = idx.tree.ValidSize()
	st.Height = idx.tree.Height()
	if nodes := idx.tree.NodePool(); nodes != nil {
		st.MemoryUsage = nodes.MemoryUsage()
	}
	return st
}

func (idx *Index[O]) checkQuery(query []float64) error {
	if idx.closed {
		return ErrClosed
	}
	if idx.tree.Empty() {
		return nil
	}
	if len(query) != idx.dim {
		return &ErrDimensionMismatch{Expected: idx.dim, Actual: len(query)}
	}
	for d, x := range query {
		if !finite(x) {
			return fmt.Errorf("%w: coordinate %d is %v", ErrInvalidQuery, d, x)
		}
	}
	return nil
}

func (idx *Index[O]) checkPlanes(planes []kdtree.Hyperplane) error {
	if idx.closed {
		return ErrClosed
	}
	if idx.tree.Empty() {
		return nil
	}
	for i, p := range planes {
		if len(p.Normal) != idx.dim {
			return fmt.Errorf("%w %d: %w", ErrInvalidPlane, i, &ErrDimensionMismatch{Expected: idx.dim, Actual: len(p.Normal)})
		}
		if !finite(p.Offset) {
			return fmt.Errorf("%w %d: offset %v", ErrInvalidPlane, i, p.Offset)
		}
		for _, x := range p.Normal {
			if !finite(x) {
				return fmt.Errorf("%w %d: normal component %v", ErrInvalidPlane, i, x)
			}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
