package kdtree

import (
	"fmt"
	"math/bits"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdpool/pool"
	"github.com/hupe1980/kdpool/testutil"
)

func TestBuild_Small(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 1}, {2, 2}, {-1, 3}}
	tree, _ := buildPoints(t, pts, 2)

	assert.Equal(t, 2, tree.NumDimensions())
	assert.Equal(t, 4, tree.Size())
	assert.Equal(t, 4, tree.ValidSize())
	assert.False(t, tree.Empty())
	assert.Equal(t, 3, tree.Height())
	assert.Equal(t, []float64{-1, 0}, tree.Min())
	assert.Equal(t, []float64{2, 3}, tree.Max())

	// Every source object is referenced exactly once.
	seen := make(map[int]bool)
	for p := range tree.All() {
		seen[p.Index()] = true
	}
	assert.Len(t, seen, 4)

	checkOrder(t, tree)
}

func TestBuild_Empty(t *testing.T) {
	tree, _ := buildPoints(t, nil, 3)

	assert.True(t, tree.Empty())
	assert.Equal(t, -1, tree.Root())
	assert.Equal(t, 0, tree.Height())
	assert.Nil(t, tree.NodePool())

	count := 0
	for range tree.All() {
		count++
	}
	assert.Zero(t, count)
}

func TestBuild_SinglePoint(t *testing.T) {
	tree, _ := buildPoints(t, [][]float64{{5, 6, 7}}, 3)

	require.Equal(t, 1, tree.Size())
	assert.Equal(t, 0, tree.Root())
	assert.Equal(t, 1, tree.Height())

	nd := tree.GetNode(tree.Root(), tree.CreateRef())
	assert.Equal(t, -1, nd.Left())
	assert.Equal(t, -1, nd.Right())
	assert.Equal(t, 0, nd.DataIndex())
	assert.True(t, nd.IsValid())
	assert.Equal(t, 7.0, nd.Position(2))
}

func TestBuild_MixedDimensions(t *testing.T) {
	objs := vecs{{idx: 0, x: []float64{1, 2}}, {idx: 1, x: []float64{1, 2, 3}}}

	_, err := Build[*vec](objs, objs)
	require.ErrorIs(t, err, ErrMixedDimensions)
}

func TestBuild_NoDimensions(t *testing.T) {
	objs := vecs{{idx: 0, x: nil}}

	_, err := Build[*vec](objs, objs)
	require.ErrorIs(t, err, ErrNoDimensions)
}

func TestBuild_OrderInvariant(t *testing.T) {
	rng := testutil.NewRNG(4711)

	cases := map[string][][]float64{
		"uniform":   rng.UniformPoints(777, 3),
		"grid":      rng.GridPoints(500, 2, 4),
		"clustered": rng.ClusteredPoints(300, 4, 3, 0.05),
		"duplicates": {
			{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1},
		},
		"sorted":   sortedPoints(2000),
		"reversed": reversedPoints(2000),
		"constant": constantPoints(2000, 2),
		"planar":   planarPoints(rng, 2000),
	}

	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			tree, _ := buildPoints(t, pts, len(pts[0]))
			assert.Equal(t, bits.Len(uint(len(pts))), tree.Height())
			checkOrder(t, tree)
		})
	}
}

// TestBuild_DegenerateInputs covers inputs where a naive last-element
// quickselect pivot separates one element per pass.
func TestBuild_DegenerateInputs(t *testing.T) {
	const size = 50_000

	cases := map[string][][]float64{
		"sorted":   sortedPoints(size),
		"reversed": reversedPoints(size),
		"constant": constantPoints(size, 2),
		"planar":   planarPoints(testutil.NewRNG(5), size),
	}

	for name, pts := range cases {
		t.Run(name, func(t *testing.T) {
			pp, err := testutil.NewPointPool(pts, len(pts[0]))
			require.NoError(t, err)
			defer pp.Close()

			start := time.Now()
			tree, err := Build[*pool.Point](pp, pp)
			elapsed := time.Since(start)
			require.NoError(t, err)
			defer tree.Close()

			assert.Less(t, elapsed, 2*time.Second)
			assert.Equal(t, size, tree.Size())
			assert.Equal(t, bits.Len(uint(size)), tree.Height())

			q := pts[size/3]
			s := NewNearestNeighborSearch(tree)
			s.Search(q)
			assert.Equal(t, 0.0, s.SquareDistance())
		})
	}
}

func sortedPoints(n int) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = []float64{float64(i), float64(i)}
	}
	return pts
}

func reversedPoints(n int) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = []float64{float64(n - i), float64(n - i)}
	}
	return pts
}

func constantPoints(n, dim int) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = make([]float64, dim)
		for d := range pts[i] {
			pts[i][d] = 1
		}
	}
	return pts
}

// planarPoints returns 3-D points that all share z = 0.
func planarPoints(rng *testutil.RNG, n int) [][]float64 {
	pts := rng.UniformPoints(n, 3)
	for _, p := range pts {
		p[2] = 0
	}
	return pts
}

func TestBuild_Deterministic(t *testing.T) {
	pts := testutil.NewRNG(42).GridPoints(400, 3, 5)

	t1, _ := buildPoints(t, pts, 3)
	t2, _ := buildPoints(t, pts, 3)

	assert.Equal(t, t1.Root(), t2.Root())
	assert.Equal(t, t1.NodePool().Data(), t2.NodePool().Data())
}

func TestBuild_OffHeapNodePool(t *testing.T) {
	pts := testutil.NewRNG(7).UniformPoints(200, 2)
	tree, _ := buildPoints(t, pts, 2, WithNodePoolOptions(pool.WithOffHeap()))

	assert.True(t, tree.NodePool().OffHeap())
	checkOrder(t, tree)
}

// checkOrder verifies that every node in the left subtree of a node splitting
// on d is at most its split value and every node in the right subtree at least.
func checkOrder(t *testing.T, tree *Tree[*pool.Point]) {
	t.Helper()

	n := tree.NumDimensions()
	nd := tree.CreateRef()
	defer tree.ReleaseRef(nd)

	var collect func(i int, out *[]int)
	collect = func(i int, out *[]int) {
		if i == noChild {
			return
		}
		*out = append(*out, i)
		tree.GetNode(i, nd)
		l, r := nd.Left(), nd.Right()
		collect(l, out)
		collect(r, out)
	}

	var all []int
	collect(tree.Root(), &all)
	require.Len(t, all, tree.Size())

	var walk func(i, d int)
	walk = func(i, d int) {
		if i == noChild {
			return
		}
		tree.GetNode(i, nd)
		split := nd.Position(d)
		l, r := nd.Left(), nd.Right()

		var left, right []int
		collect(l, &left)
		collect(r, &right)
		for _, j := range left {
			require.LessOrEqual(t, tree.GetNode(j, nd).Position(d), split)
		}
		for _, j := range right {
			require.GreaterOrEqual(t, tree.GetNode(j, nd).Position(d), split)
		}

		walk(l, (d+1)%n)
		walk(r, (d+1)%n)
	}
	walk(tree.Root(), 0)
}

func BenchmarkBuild(b *testing.B) {
	rng := testutil.NewRNG(4711)
	for _, size := range []int{1_000, 100_000} {
		pts := rng.UniformPoints(size, 3)
		objects, err := testutil.NewPointPool(pts, 3)
		require.NoError(b, err)

		b.Run(fmt.Sprintf("n=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				tree, err := Build[*pool.Point](objects, objects)
				if err != nil {
					b.Fatal(err)
				}
				_ = tree.Close()
			}
		})
		_ = objects.Close()
	}
}
