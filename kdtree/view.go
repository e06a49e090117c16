package kdtree

import (
	"math"

	"github.com/hupe1980/kdpool/distance"
	"github.com/hupe1980/kdpool/pool"
)

// nodeView abstracts how a traversal reads nodes. Nodes are addressed by an
// opaque handle: the node index for refView, the flat slot offset for flatView.
// A child accessor returns -1 when there is no child.
type nodeView interface {
	root() int
	position(h, d int) float64
	dot(h int, normal []float64) float64
	left(h int) int
	right(h int) int
	dataIndex(h int) int
	valid(h int) bool
}

// refView reads nodes through a single flyweight ref, repointed on demand.
type refView struct {
	nodes    *pool.Pool
	ref      *pool.Ref
	n        int
	rootNode int
}

func newRefView(nodes *pool.Pool, n, root int) refView {
	return refView{nodes: nodes, ref: nodes.CreateRef(), n: n, rootNode: root}
}

func (v refView) at(h int) *pool.Ref {
	if v.ref.Index() != h {
		v.nodes.GetByIndex(h, v.ref)
	}
	return v.ref
}

func (v refView) root() int { return v.rootNode }

func (v refView) position(h, d int) float64 { return v.at(h).Float(d) }

func (v refView) dot(h int, normal []float64) float64 {
	return distance.Dot(normal, v.at(h).Slots())
}

func (v refView) left(h int) int { return unpackLeft(v.at(h).Bits(v.n)) }

func (v refView) right(h int) int { return unpackRight(v.at(h).Bits(v.n)) }

func (v refView) dataIndex(h int) int { return unpackDataIndex(v.at(h).Bits(v.n + 1)) }

func (v refView) valid(h int) bool {
	return unpackFlags(v.at(h).Bits(v.n+1))&FlagInvalid == 0
}

// flatView reads nodes straight from the pool's flat backing slice.
type flatView struct {
	data    []float64
	n       int
	stride  int
	rootOff int
}

func newFlatView(nodes *pool.Pool, n, root int) flatView {
	return flatView{data: nodes.Data(), n: n, stride: n + 2, rootOff: root * (n + 2)}
}

func (v flatView) child(node int) int {
	if node < 0 {
		return noChild
	}
	return node * v.stride
}

func (v flatView) root() int { return v.rootOff }

func (v flatView) position(h, d int) float64 { return v.data[h+d] }

func (v flatView) dot(h int, normal []float64) float64 {
	return distance.Dot(normal, v.data[h:h+v.n])
}

func (v flatView) left(h int) int {
	return v.child(unpackLeft(math.Float64bits(v.data[h+v.n])))
}

func (v flatView) right(h int) int {
	return v.child(unpackRight(math.Float64bits(v.data[h+v.n])))
}

func (v flatView) dataIndex(h int) int {
	return unpackDataIndex(math.Float64bits(v.data[h+v.n+1]))
}

func (v flatView) valid(h int) bool {
	return unpackFlags(math.Float64bits(v.data[h+v.n+1]))&FlagInvalid == 0
}
