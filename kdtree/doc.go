// Package kdtree implements a KD-tree whose nodes live in a flyweight record pool.
//
// The tree is built once, in place, over a copy of the coordinates of pooled
// objects. Each node is a pool record of n+2 float64 slots:
//
//	[0, n)  position, copied at build time
//	n       left<<32 | right   (child node indices, -1 for none)
//	n+1     flags<<32 | dataIndex (bit 0 of flags marks the node invalid)
//
// Queries resolve results back to the original object pool through the data
// index, so they yield the caller's objects rather than copies.
//
// # Queries
//
//   - NearestNeighborSearch: exact nearest neighbor, branch and bound
//   - SplitHyperPlane: partition by one hyperplane into above/below
//   - ClipConvexPolytope: partition by the intersection of half-spaces
//
// Every query can walk the tree either through node-indexed flyweight refs
// (TraversalRef) or directly over the flat float64 backing slice
// (TraversalFlat, the default). Both produce identical results.
//
// # Results
//
// Split and clip results record whole subtrees when a bounding-box test proves
// a uniform classification. Iterating a Result expands those subtrees lazily
// with an explicit stack. Yielded objects are a single reused flyweight ref:
// copy them before advancing if you need to keep them.
//
// # Concurrency
//
// A built tree is read-mostly; the only supported mutation is toggling node
// validity. Query objects own private scratch refs and stacks, so separate
// query objects may run concurrently over the same tree, but a single query
// object is not safe for concurrent use.
package kdtree
