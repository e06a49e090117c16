package kdtree

import "github.com/bits-and-blooms/bitset"

// ClipConvexPolytope partitions all tree points into those inside a convex
// polytope and those outside it.
//
// A point is inside when dot(normal, p) >= offset holds for every plane.
// ClipConvexPolytope is NOT thread-safe. Create one per goroutine.
type ClipConvexPolytope[O RealPoint] struct {
	tree    *Tree[O]
	core    clipper
	inside  *Result[O]
	outside *Result[O]
}

type clipper interface {
	clip(planes []Hyperplane)
}

// NewClipConvexPolytope creates a clip query over tree.
func NewClipConvexPolytope[O RealPoint](tree *Tree[O], optFns ...QueryOption) *ClipConvexPolytope[O] {
	o := applyQueryOptions(optFns)
	c := &ClipConvexPolytope[O]{tree: tree}

	if tree.nodes == nil {
		c.inside = newResult[O](tree, nil)
		c.outside = newResult[O](tree, nil)
		return c
	}

	switch o.traversal {
	case TraversalRef:
		v := newRefView(tree.nodes, tree.n, tree.root)
		c.inside, c.outside = newResult[O](tree, v), newResult[O](tree, v)
		c.core = newClipCore(v, tree, &c.inside.set, &c.outside.set)
	default:
		v := newFlatView(tree.nodes, tree.n, tree.root)
		c.inside, c.outside = newResult[O](tree, v), newResult[O](tree, v)
		c.core = newClipCore(v, tree, &c.inside.set, &c.outside.set)
	}
	return c
}

// Clip classifies every point against the polytope bounded by planes.
// With no planes every point is inside.
func (c *ClipConvexPolytope[O]) Clip(planes []Hyperplane) {
	c.inside.set.reset()
	c.outside.set.reset()
	if c.core == nil || c.tree.size == 0 {
		return
	}
	c.core.clip(planes)
}

// ClipPolytope is Clip for a ConvexPolytope value.
func (c *ClipConvexPolytope[O]) ClipPolytope(p ConvexPolytope) {
	c.Clip(p)
}

// Inside returns the points inside the polytope from the last Clip.
func (c *ClipConvexPolytope[O]) Inside() *Result[O] { return c.inside }

// Outside returns the points outside the polytope from the last Clip.
func (c *ClipConvexPolytope[O]) Outside() *Result[O] { return c.outside }

// clipCore is the clip traversal, shared by both node views.
//
// For every depth d and plane i it keeps two flags at bit d*P+i:
// active says the plane still cuts the current subtree box, ps says the
// node at that depth was on or above the plane.
type clipCore[V nodeView] struct {
	view V
	n    int

	treeMin, treeMax []float64
	box              box
	height           int

	numPlanes int
	normals   []float64
	offsets   []float64

	active *bitset.BitSet
	ps     *bitset.BitSet

	inside, outside *resultSet
}

func newClipCore[V nodeView, O RealPoint](view V, tree *Tree[O], inside, outside *resultSet) *clipCore[V] {
	return &clipCore[V]{
		view:    view,
		n:       tree.n,
		treeMin: tree.min,
		treeMax: tree.max,
		box:     newBox(tree.n),
		height:  tree.height,
		active:  bitset.New(0),
		ps:      bitset.New(0),
		inside:  inside,
		outside: outside,
	}
}

func (c *clipCore[V]) normal(i int) []float64 {
	return c.normals[i*c.n : (i+1)*c.n]
}

func (c *clipCore[V]) bit(depth, i int) uint {
	return uint(depth*c.numPlanes + i)
}

func (c *clipCore[V]) setPlanes(planes []Hyperplane) {
	c.numPlanes = len(planes)
	c.normals = c.normals[:0]
	c.offsets = c.offsets[:0]
	for _, p := range planes {
		c.normals = append(c.normals, p.Normal[:c.n]...)
		c.offsets = append(c.offsets, p.Offset)
	}

	bits := uint(c.height * c.numPlanes)
	if c.active.Len() < bits {
		c.active = bitset.New(bits)
		c.ps = bitset.New(bits)
	}
}

func (c *clipCore[V]) clip(planes []Hyperplane) {
	root := c.view.root()
	if len(planes) == 0 {
		c.inside.subtrees = append(c.inside.subtrees, root)
		return
	}

	c.setPlanes(planes)
	c.box.reset(c.treeMin, c.treeMax)

	anyActive := false
	for i := range c.numPlanes {
		normal, m := c.normal(i), c.offsets[i]
		switch {
		case c.box.above(normal, m):
			c.active.Clear(c.bit(0, i))
		case c.box.below(normal, m):
			c.outside.subtrees = append(c.outside.subtrees, root)
			return
		default:
			c.active.Set(c.bit(0, i))
			anyActive = true
		}
	}
	if !anyActive {
		c.inside.subtrees = append(c.inside.subtrees, root)
		return
	}
	c.clipSubtree(root, 0, 0)
}

// clipSubtree classifies node h against the planes active at depth, then
// hands both children to clipChild.
func (c *clipCore[V]) clipSubtree(h, depth, d int) {
	v := c.view
	in := true
	for i := range c.numPlanes {
		b := c.bit(depth, i)
		if !c.active.Test(b) {
			continue
		}
		above := v.dot(h, c.normal(i)) >= c.offsets[i]
		c.ps.SetTo(b, above)
		if !above {
			in = false
		}
	}
	if in {
		c.inside.nodes = append(c.inside.nodes, h)
	} else {
		c.outside.nodes = append(c.outside.nodes, h)
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
		c.clipChild(left, depth, dChild)
		c.box.max[d] = saved
	}
	if right != noChild {
		saved := c.box.min[d]
		c.box.min[d] = sd
		c.clipChild(right, depth, dChild)
		c.box.min[d] = saved
	}
}

// clipChild derives the active planes for child h from its parent at
// parentDepth. The parent position lies in the closed child box, so a plane
// the parent was above can only make the box entirely above, and a plane the
// parent was below can only make it entirely below.
func (c *clipCore[V]) clipChild(h, parentDepth, d int) {
	depth := parentDepth + 1
	anyActive := false
	for i := range c.numPlanes {
		pb, cb := c.bit(parentDepth, i), c.bit(depth, i)
		if !c.active.Test(pb) {
			c.active.Clear(cb)
			continue
		}
		normal, m := c.normal(i), c.offsets[i]
		if c.ps.Test(pb) {
			if c.box.above(normal, m) {
				c.active.Clear(cb)
				continue
			}
		} else if c.box.below(normal, m) {
			c.outside.subtrees = append(c.outside.subtrees, h)
			return
		}
		c.active.Set(cb)
		anyActive = true
	}

	if !anyActive {
		c.inside.subtrees = append(c.inside.subtrees, h)
		return
	}
	c.clipSubtree(h, depth, d)
}
