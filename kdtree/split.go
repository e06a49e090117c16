package kdtree

// SplitHyperPlane partitions all tree points by one hyperplane.
//
// SplitHyperPlane is NOT thread-safe. Create one per goroutine.
type SplitHyperPlane[O RealPoint] struct {
	tree  *Tree[O]
	core  splitter
	above *Result[O]
	below *Result[O]
}

type splitter interface {
	split(normal []float64, m float64)
}

// NewSplitHyperPlane creates a split query over tree.
func NewSplitHyperPlane[O RealPoint](tree *Tree[O], optFns ...QueryOption) *SplitHyperPlane[O] {
	o := applyQueryOptions(optFns)
	s := &SplitHyperPlane[O]{tree: tree}

	if tree.nodes == nil {
		s.above = newResult[O](tree, nil)
		s.below = newResult[O](tree, nil)
		return s
	}

	switch o.traversal {
	case TraversalRef:
		v := newRefView(tree.nodes, tree.n, tree.root)
		s.above, s.below = newResult[O](tree, v), newResult[O](tree, v)
		s.core = newSplitCore(v, tree, &s.above.set, &s.below.set)
	default:
		v := newFlatView(tree.nodes, tree.n, tree.root)
		s.above, s.below = newResult[O](tree, v), newResult[O](tree, v)
		s.core = newSplitCore(v, tree, &s.above.set, &s.below.set)
	}
	return s
}

// Split classifies every point as above (dot(normal, p) >= offset) or below plane.
func (s *SplitHyperPlane[O]) Split(plane Hyperplane) {
	s.above.set.reset()
	s.below.set.reset()
	if s.core == nil || s.tree.size == 0 {
		return
	}
	s.core.split(plane.Normal, plane.Offset)
}

// Above returns the points on or above the plane from the last Split.
func (s *SplitHyperPlane[O]) Above() *Result[O] { return s.above }

// Below returns the points below the plane from the last Split.
func (s *SplitHyperPlane[O]) Below() *Result[O] { return s.below }

// splitCore is the split traversal, shared by both node views.
type splitCore[V nodeView] struct {
	view V
	n    int

	treeMin, treeMax []float64
	box              box

	normal []float64
	m      float64

	above, below *resultSet
}

func newSplitCore[V nodeView, O RealPoint](view V, tree *Tree[O], above, below *resultSet) *splitCore[V] {
	return &splitCore[V]{
		view:    view,
		n:       tree.n,
		treeMin: tree.min,
		treeMax: tree.max,
		box:     newBox(tree.n),
		above:   above,
		below:   below,
	}
}

func (c *splitCore[V]) split(normal []float64, m float64) {
	c.normal = normal
	c.m = m
	c.box.reset(c.treeMin, c.treeMax)
	c.classify(c.view.root(), 0)
}

// classify records the subtree whole if its box lies on one side of the
// plane, otherwise descends into it.
func (c *splitCore[V]) classify(h, d int) {
	switch {
	case c.box.above(c.normal, c.m):
		c.above.subtrees = append(c.above.subtrees, h)
	case c.box.below(c.normal, c.m):
		c.below.subtrees = append(c.below.subtrees, h)
	default:
		c.splitSubtree(h, d)
	}
}

func (c *splitCore[V]) splitSubtree(h, d int) {
	v := c.view
	if v.dot(h, c.normal) >= c.m {
		c.above.nodes = append(c.above.nodes, h)
	} else {
		c.below.nodes = append(c.below.nodes, h)
	}

	sd := v.position(h, d)
	left, right := v.left(h), v.right(h)
	dChild := d + 1
	if dChild == c.n {
		dChild = 0
	}

	if left != noChild {
		saved := c.box.max[d]
		c.box.max[d] = sd
		c.classify(left, dChild)
		c.box.max[d] = saved
	}
	if right != noChild {
		saved := c.box.min[d]
		c.box.min[d] = sd
		c.classify(right, dChild)
		c.box.min[d] = saved
	}
}
