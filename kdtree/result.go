package kdtree

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// resultSet collects single-node handles and whole-subtree root handles.
type resultSet struct {
	nodes    []int
	subtrees []int
}

func (s *resultSet) reset() {
	s.nodes = s.nodes[:0]
	s.subtrees = s.subtrees[:0]
}

// Result is one side of a split or clip.
//
// It is owned by the query object that produced it and is overwritten by the
// next query on that object.
type Result[O RealPoint] struct {
	tree *Tree[O]
	view nodeView
	set  resultSet

	obj    O
	hasObj bool
}

func newResult[O RealPoint](tree *Tree[O], view nodeView) *Result[O] {
	return &Result[O]{tree: tree, view: view}
}

// NumNodes returns the number of individually classified nodes.
func (r *Result[O]) NumNodes() int { return len(r.set.nodes) }

// NumSubtrees returns the number of subtrees classified as a whole.
func (r *Result[O]) NumSubtrees() int { return len(r.set.subtrees) }

// Len returns the number of nodes in the result, expanding subtrees.
func (r *Result[O]) Len() int {
	n := 0
	for range r.handles(false) {
		n++
	}
	return n
}

// ValidLen returns the number of valid nodes in the result.
func (r *Result[O]) ValidLen() int {
	n := 0
	for range r.handles(true) {
		n++
	}
	return n
}

// DataIndices iterates the object pool indices of all nodes in the result.
func (r *Result[O]) DataIndices() iter.Seq[int] {
	return r.dataIndices(false)
}

// ValidDataIndices iterates the object pool indices of valid nodes in the result.
func (r *Result[O]) ValidDataIndices() iter.Seq[int] {
	return r.dataIndices(true)
}

// All iterates the objects of all nodes in the result.
// The yielded object is one reused flyweight ref.
func (r *Result[O]) All() iter.Seq[O] {
	return r.objects(false)
}

// Valid iterates the objects of valid nodes in the result.
// The yielded object is one reused flyweight ref.
func (r *Result[O]) Valid() iter.Seq[O] {
	return r.objects(true)
}

// Bitmap returns the object pool indices of all nodes in the result.
func (r *Result[O]) Bitmap() *roaring.Bitmap {
	return r.bitmap(false)
}

// ValidBitmap returns the object pool indices of valid nodes in the result.
func (r *Result[O]) ValidBitmap() *roaring.Bitmap {
	return r.bitmap(true)
}

func (r *Result[O]) bitmap(onlyValid bool) *roaring.Bitmap {
	bm := roaring.New()
	for idx := range r.dataIndices(onlyValid) {
		bm.AddInt(idx)
	}
	return bm
}

func (r *Result[O]) objects(onlyValid bool) iter.Seq[O] {
	return func(yield func(O) bool) {
		if r.view == nil {
			return
		}
		if !r.hasObj {
			r.obj = r.tree.objects.CreateRef()
			r.hasObj = true
		}
		for idx := range r.dataIndices(onlyValid) {
			if !yield(r.tree.objects.GetByIndex(idx, r.obj)) {
				return
			}
		}
	}
}

func (r *Result[O]) dataIndices(onlyValid bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		for h := range r.handles(onlyValid) {
			if !yield(r.view.dataIndex(h)) {
				return
			}
		}
	}
}

// handles yields single nodes first, then expands each recorded subtree
// depth-first with an explicit stack.
func (r *Result[O]) handles(onlyValid bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		v := r.view
		if v == nil {
			return
		}
		for _, h := range r.set.nodes {
			if onlyValid && !v.valid(h) {
				continue
			}
			if !yield(h) {
				return
			}
		}
		if len(r.set.subtrees) == 0 {
			return
		}

		stack := make([]int, 0, r.tree.height+1)
		for _, sub := range r.set.subtrees {
			stack = append(stack[:0], sub)
			for len(stack) > 0 {
				h := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				// Read links before yielding: a ref-backed view may be
				// repointed by the consumer's loop body.
				left, right := v.left(h), v.right(h)
				if !onlyValid || v.valid(h) {
					if !yield(h) {
						return
					}
				}
				if right != noChild {
					stack = append(stack, right)
				}
				if left != noChild {
					stack = append(stack, left)
				}
			}
		}
	}
}
