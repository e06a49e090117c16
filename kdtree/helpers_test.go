package kdtree

import (
	"iter"
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdpool/distance"
	"github.com/hupe1980/kdpool/pool"
	"github.com/hupe1980/kdpool/testutil"
)

var traversals = []Traversal{TraversalFlat, TraversalRef}

// buildPoints loads pts into a point pool and builds a tree over it.
func buildPoints(t testing.TB, pts [][]float64, dim int, opts ...BuildOption) (*Tree[*pool.Point], *pool.PointPool) {
	t.Helper()

	pp, err := testutil.NewPointPool(pts, dim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pp.Close() })

	tree, err := Build[*pool.Point](pp, pp, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })

	return tree, pp
}

func dot(a, b []float64) float64 { return distance.Dot(a, b) }

func bitmapOf(xs ...uint32) *roaring.Bitmap { return roaring.BitmapOf(xs...) }

func bitmapInts(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

func sortedIndices(seq iter.Seq[int]) []int {
	out := slices.Collect(seq)
	slices.Sort(out)
	return out
}

// orNil maps an empty slice to nil so results compare equal to oracle output.
func orNil(s []int) []int {
	if len(s) == 0 {
		return nil
	}
	return s
}

// vec is a heap point used to build collections that a PointPool cannot express.
type vec struct {
	idx int
	x   []float64
}

func (v *vec) Index() int                   { return v.idx }
func (v *vec) NumDimensions() int           { return len(v.x) }
func (v *vec) DoublePosition(d int) float64 { return v.x[d] }

type vecs []*vec

func (s vecs) Len() int { return len(s) }

func (s vecs) All() iter.Seq[*vec] {
	return slices.Values(s)
}

func (s vecs) CreateRef() *vec { return nil }

func (s vecs) ReleaseRef(*vec) {}

func (s vecs) GetByIndex(i int, _ *vec) *vec { return s[i] }
