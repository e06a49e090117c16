package kdtree

import (
	"math"

	"github.com/hupe1980/kdpool/distance"
	"github.com/hupe1980/kdpool/pool"
)

// NearestNeighborSearch finds the exact nearest tree point to a query.
//
// NearestNeighborSearch is NOT thread-safe. Create one per goroutine.
type NearestNeighborSearch[O RealPoint] struct {
	tree      *Tree[O]
	n         int
	traversal Traversal
	onlyValid bool

	query           []float64
	bestSquDistance float64
	bestNode        int

	// TraversalRef scratch.
	ref *pool.Ref

	// TraversalFlat scratch, indexed by depth.
	awayChildNodeIndices []int
	axisDiffs            []float64

	obj    O
	hasObj bool
}

// NewNearestNeighborSearch creates a search over tree.
func NewNearestNeighborSearch[O RealPoint](tree *Tree[O], optFns ...QueryOption) *NearestNeighborSearch[O] {
	o := applyQueryOptions(optFns)
	s := &NearestNeighborSearch[O]{
		tree:            tree,
		n:               tree.n,
		traversal:       o.traversal,
		onlyValid:       o.onlyValid,
		bestSquDistance: math.Inf(1),
		bestNode:        noChild,
	}
	if tree.nodes != nil {
		s.ref = tree.nodes.CreateRef()
		s.awayChildNodeIndices = make([]int, tree.height)
		s.axisDiffs = make([]float64, tree.height)
	}
	return s
}

// Search finds the nearest neighbor of query.
// query must have NumDimensions() coordinates; this is not checked.
// The search holds on to query until the next call.
func (s *NearestNeighborSearch[O]) Search(query []float64) {
	s.query = query
	s.bestSquDistance = math.Inf(1)
	s.bestNode = noChild

	if s.tree.size == 0 {
		return
	}

	if s.traversal == TraversalRef {
		s.searchNode(s.tree.root, 0)
		return
	}
	s.searchFlat()
}

// Found reports whether the last search found a neighbor.
func (s *NearestNeighborSearch[O]) Found() bool { return s.bestNode != noChild }

// SquareDistance returns the squared distance to the nearest neighbor, or +Inf.
func (s *NearestNeighborSearch[O]) SquareDistance() float64 { return s.bestSquDistance }

// Distance returns the distance to the nearest neighbor, or +Inf.
func (s *NearestNeighborSearch[O]) Distance() float64 { return math.Sqrt(s.bestSquDistance) }

// BestNode returns the node index of the nearest neighbor, or -1.
func (s *NearestNeighborSearch[O]) BestNode() int { return s.bestNode }

// BestDataIndex returns the object pool index of the nearest neighbor, or -1.
func (s *NearestNeighborSearch[O]) BestDataIndex() int {
	if s.bestNode == noChild {
		return noChild
	}
	return s.tree.dataIndex(s.bestNode)
}

// Get returns the nearest object through a ref owned by the search.
// It returns the zero value if nothing was found. The ref is repointed by the
// next Get after a new search.
func (s *NearestNeighborSearch[O]) Get() O {
	if s.bestNode == noChild {
		var zero O
		return zero
	}
	if !s.hasObj {
		s.obj = s.tree.objects.CreateRef()
		s.hasObj = true
	}
	return s.tree.objects.GetByIndex(s.BestDataIndex(), s.obj)
}

// searchNode is the recursive branch and bound over node-indexed refs.
func (s *NearestNeighborSearch[O]) searchNode(current, d int) {
	n := s.n
	ref := s.tree.nodes.GetByIndex(current, s.ref)
	slots := ref.Slots()

	if !s.onlyValid || unpackFlags(ref.Bits(n+1))&FlagInvalid == 0 {
		if dist := distance.SquaredL2(s.query, slots); dist < s.bestSquDistance {
			s.bestSquDistance = dist
			s.bestNode = current
		}
	}

	axisDiff := s.query[d] - slots[d]
	links := ref.Bits(n)
	near, far := unpackRight(links), unpackLeft(links)
	if axisDiff < 0 {
		near, far = far, near
	}

	dChild := d + 1
	if dChild == n {
		dChild = 0
	}
	if near != noChild {
		s.searchNode(near, dChild)
	}
	// The ref was repointed by the near branch; everything needed is in locals.
	if far != noChild && axisDiff*axisDiff <= s.bestSquDistance {
		s.searchNode(far, dChild)
	}
}

// searchFlat runs the same branch and bound over the flat slot array with an
// explicit depth-indexed stack instead of recursion.
func (s *NearestNeighborSearch[O]) searchFlat() {
	n := s.n
	stride := n + 2
	data := s.tree.nodes.Data()
	q := s.query

	node := s.tree.root
	depth := 0
	d := 0
	for {
		// Descend along near branches, remembering the far side at each depth.
		for {
			off := node * stride
			if !s.onlyValid || unpackFlags(math.Float64bits(data[off+n+1]))&FlagInvalid == 0 {
				if dist := distance.SquaredL2(q, data[off:off+n]); dist < s.bestSquDistance {
					s.bestSquDistance = dist
					s.bestNode = node
				}
			}

			axisDiff := q[d] - data[off+d]
			links := math.Float64bits(data[off+n])
			near, far := unpackRight(links), unpackLeft(links)
			if axisDiff < 0 {
				near, far = far, near
			}
			s.awayChildNodeIndices[depth] = far
			s.axisDiffs[depth] = axisDiff * axisDiff

			if near == noChild {
				break
			}
			node = near
			depth++
			if d++; d == n {
				d = 0
			}
		}

		// Unwind to the deepest far branch that may still hold a closer point.
		for {
			far := s.awayChildNodeIndices[depth]
			if far != noChild && s.axisDiffs[depth] <= s.bestSquDistance {
				s.awayChildNodeIndices[depth] = noChild
				node = far
				depth++
				d = depth % n
				break
			}
			if depth == 0 {
				return
			}
			depth--
		}
	}
}
