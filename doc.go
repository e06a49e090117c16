// Package kdpool provides an exact KD-tree index over pooled point objects.
//
// Points live in a flyweight object pool: a flat float64 arena addressed by
// integer index and read through reusable cursors. The index builds a
// balanced KD-tree over a copy of their coordinates, in a node pool of its
// own, and answers geometric queries with object pool indices.
//
// # Quick Start
//
//	points, _ := pool.NewPointPool(2)
//	points.Add(0, 0)
//	points.Add(1, 1)
//	points.Add(2, 2)
//
//	idx, _ := kdpool.New[*pool.Point](points, points)
//	defer idx.Close()
//
//	nb, _ := idx.Nearest(ctx, []float64{0.9, 0.9})
//	fmt.Println(nb.DataIndex) // 1
//
// # Queries
//
//   - Nearest / NearestBatch: exact nearest neighbor by branch and bound
//   - Split: partition by one hyperplane dot(normal, x) >= offset
//   - Clip: partition by a convex polytope (intersection of half-spaces)
//
// Split and Clip return roaring bitmaps of object pool indices. For lazy
// iteration over the pooled objects themselves, use package kdtree directly.
//
// # Invalidation
//
// The tree is built once. Invalidate tombstones points in place; queries
// skip tombstoned points while still using them to prune the search.
//
// # Resources
//
// A resource.Controller caps node pool memory, batch workers and batch query
// rate. WithOffHeap keeps the node pool in anonymous mapped memory.
package kdpool
