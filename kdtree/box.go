package kdtree

import "github.com/hupe1980/kdpool/distance"

// box is the axis-aligned bounding box of the subtree being visited.
// Traversals shrink one side when descending and restore it on the way back.
type box struct {
	min, max []float64
	corner   []float64
}

func newBox(n int) box {
	return box{
		min:    make([]float64, n),
		max:    make([]float64, n),
		corner: make([]float64, n),
	}
}

func (b *box) reset(lo, hi []float64) {
	copy(b.min, lo)
	copy(b.max, hi)
}

// above reports whether every point of the box satisfies dot(normal, x) >= m.
// The tested corner minimizes the dot product. Dot is evaluated the same way
// as for node positions, so the answer agrees with a per-node test.
func (b *box) above(normal []float64, m float64) bool {
	for d, nd := range normal {
		if nd >= 0 {
			b.corner[d] = b.min[d]
		} else {
			b.corner[d] = b.max[d]
		}
	}
	return distance.Dot(normal, b.corner) >= m
}

// below reports whether every point of the box satisfies dot(normal, x) < m.
func (b *box) below(normal []float64, m float64) bool {
	for d, nd := range normal {
		if nd >= 0 {
			b.corner[d] = b.max[d]
		} else {
			b.corner[d] = b.min[d]
		}
	}
	return distance.Dot(normal, b.corner) < m
}
