package kdtree

import (
	"iter"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kdpool/pool"
)

// Tree is a balanced KD-tree over objects of an external object pool.
// The tree owns its node pool but only references the object pool.
type Tree[O RealPoint] struct {
	n       int
	nodes   *pool.Pool // nil for an empty tree
	objects ObjectPool[O]
	root    int
	size    int
	height  int
	invalid int

	min, max []float64
}

// NumDimensions returns the dimensionality of the tree.
func (t *Tree[O]) NumDimensions() int { return t.n }

// Size returns the number of nodes.
func (t *Tree[O]) Size() int { return t.size }

// ValidSize returns the number of nodes that are not invalidated.
func (t *Tree[O]) ValidSize() int { return t.size - t.invalid }

// Empty reports whether the tree has no nodes.
func (t *Tree[O]) Empty() bool { return t.size == 0 }

// Root returns the root node index, or -1 for an empty tree.
func (t *Tree[O]) Root() int { return t.root }

// Height returns the number of levels of the tree.
func (t *Tree[O]) Height() int { return t.height }

// Min returns the lower corner of the bounding box of all node positions.
func (t *Tree[O]) Min() []float64 { return slices.Clone(t.min) }

// Max returns the upper corner of the bounding box of all node positions.
func (t *Tree[O]) Max() []float64 { return slices.Clone(t.max) }

// NodePool returns the pool holding the nodes, or nil for an empty tree.
func (t *Tree[O]) NodePool() *pool.Pool { return t.nodes }

// ObjectPool returns the pool the tree's data indices refer to.
func (t *Tree[O]) ObjectPool() ObjectPool[O] { return t.objects }

// CreateRef returns an unbound node cursor.
func (t *Tree[O]) CreateRef() *Node {
	if t.nodes == nil {
		return &Node{n: t.n}
	}
	return &Node{ref: t.nodes.CreateRef(), n: t.n}
}

// ReleaseRef returns a node cursor for reuse.
func (t *Tree[O]) ReleaseRef(nd *Node) {
	if t.nodes == nil || nd == nil || nd.ref == nil {
		return
	}
	t.nodes.ReleaseRef(nd.ref)
}

// GetNode points ref at node index and returns it.
func (t *Tree[O]) GetNode(index int, ref *Node) *Node {
	t.nodes.GetByIndex(index, ref.ref)
	return ref
}

// IsValid reports whether node index is valid.
func (t *Tree[O]) IsValid(index int) bool {
	return t.flags(index)&FlagInvalid == 0
}

// Invalidate tombstones node index. It reports whether the node changed.
func (t *Tree[O]) Invalidate(index int) bool {
	return t.SetValid(index, false)
}

// SetValid sets the validity flag of node index without restructuring the tree.
// It reports whether the node changed.
func (t *Tree[O]) SetValid(index int, valid bool) bool {
	off := index*(t.n+2) + t.n + 1
	data := t.nodes.Data()
	b := math.Float64bits(data[off])
	flags := unpackFlags(b)

	was := flags&FlagInvalid == 0
	if was == valid {
		return false
	}
	if valid {
		flags &^= FlagInvalid
		t.invalid--
	} else {
		flags |= FlagInvalid
		t.invalid++
	}
	data[off] = math.Float64frombits(packData(flags, unpackDataIndex(b)))
	return true
}

// InvalidateData tombstones every node whose data index is in dataIndices.
// It returns the number of nodes that changed.
func (t *Tree[O]) InvalidateData(dataIndices *roaring.Bitmap) int {
	if t.nodes == nil || dataIndices == nil || dataIndices.IsEmpty() {
		return 0
	}
	changed := 0
	for i := 0; i < t.size; i++ {
		if dataIndices.Contains(uint32(t.dataIndex(i))) && t.SetValid(i, false) {
			changed++
		}
	}
	return changed
}

// InvalidData returns the data indices of all invalidated nodes.
func (t *Tree[O]) InvalidData() *roaring.Bitmap {
	bm := roaring.New()
	if t.invalid == 0 {
		return bm
	}
	for i := 0; i < t.size; i++ {
		if !t.IsValid(i) {
			bm.AddInt(t.dataIndex(i))
		}
	}
	return bm
}

// All iterates the objects of all nodes through one reused object ref.
func (t *Tree[O]) All() iter.Seq[O] {
	return t.objectsOf(false)
}

// Valid iterates the objects of all valid nodes through one reused object ref.
func (t *Tree[O]) Valid() iter.Seq[O] {
	return t.objectsOf(true)
}

// Close releases the node pool. The object pool is not touched.
func (t *Tree[O]) Close() error {
	if t.nodes == nil {
		return nil
	}
	err := t.nodes.Close()
	t.nodes = nil
	t.size = 0
	t.root = noChild
	t.invalid = 0
	return err
}

func (t *Tree[O]) objectsOf(onlyValid bool) iter.Seq[O] {
	return func(yield func(O) bool) {
		if t.size == 0 {
			return
		}
		obj := t.objects.CreateRef()
		defer t.objects.ReleaseRef(obj)
		for i := 0; i < t.size; i++ {
			if onlyValid && !t.IsValid(i) {
				continue
			}
			if !yield(t.objects.GetByIndex(t.dataIndex(i), obj)) {
				return
			}
		}
	}
}

func (t *Tree[O]) flags(index int) uint32 {
	return unpackFlags(math.Float64bits(t.nodes.Data()[index*(t.n+2)+t.n+1]))
}

func (t *Tree[O]) dataIndex(index int) int {
	return unpackDataIndex(math.Float64bits(t.nodes.Data()[index*(t.n+2)+t.n+1]))
}
