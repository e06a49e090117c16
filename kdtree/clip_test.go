package kdtree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdpool/testutil"
)

// boxPlanes returns the four half-spaces of the 2-D box [x0,x1]x[y0,y1].
func boxPlanes(x0, x1, y0, y1 float64) []Hyperplane {
	return []Hyperplane{
		{Normal: []float64{1, 0}, Offset: x0},
		{Normal: []float64{-1, 0}, Offset: -x1},
		{Normal: []float64{0, 1}, Offset: y0},
		{Normal: []float64{0, -1}, Offset: -y1},
	}
}

func splitPlanes(planes []Hyperplane) ([][]float64, []float64) {
	normals := make([][]float64, len(planes))
	offsets := make([]float64, len(planes))
	for i, p := range planes {
		normals[i] = p.Normal
		offsets[i] = p.Offset
	}
	return normals, offsets
}

func TestClip_Concrete(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 1}, {2, 2}, {-1, 3}}
	tree, _ := buildPoints(t, pts, 2)

	for _, tr := range traversals {
		t.Run(tr.String(), func(t *testing.T) {
			c := NewClipConvexPolytope(tree, WithTraversal(tr))
			c.Clip(boxPlanes(-0.5, 1.5, -0.5, 1.5))

			assert.Equal(t, []int{0, 1}, sortedIndices(c.Inside().DataIndices()))
			assert.Equal(t, []int{2, 3}, sortedIndices(c.Outside().DataIndices()))
		})
	}
}

func TestClip_BruteForce(t *testing.T) {
	rng := testutil.NewRNG(4711)

	cases := []struct {
		name string
		dim  int
		pts  [][]float64
	}{
		{"uniform-2d", 2, rng.UniformPoints(1000, 2)},
		{"uniform-3d", 3, rng.UniformPoints(800, 3)},
		{"grid-2d", 2, rng.GridPoints(500, 2, 6)},
	}

	for _, tc := range cases {
		tree, _ := buildPoints(t, tc.pts, tc.dim)

		for _, tr := range traversals {
			t.Run(tc.name+"/"+tr.String(), func(t *testing.T) {
				c := NewClipConvexPolytope(tree, WithTraversal(tr))
				for range 40 {
					// Random polytope: planes facing a random center from random directions.
					center := rng.UniformPoints(1, tc.dim)[0]
					planes := make(ConvexPolytope, 1+rng.Intn(6))
					for i := range planes {
						normal := rng.UnitVector(tc.dim)
						planes[i] = Hyperplane{Normal: normal, Offset: dot(normal, center) - 0.3*rng.Float64()}
					}

					c.ClipPolytope(planes)
					normals, offsets := splitPlanes(planes)
					wantIn, wantOut := testutil.BruteForceClip(tc.pts, normals, offsets)

					gotIn := orNil(sortedIndices(c.Inside().DataIndices()))
					gotOut := orNil(sortedIndices(c.Outside().DataIndices()))
					require.Equal(t, wantIn, gotIn)
					require.Equal(t, wantOut, gotOut)
					require.Equal(t, tree.Size(), c.Inside().Len()+c.Outside().Len())

					for _, i := range gotIn {
						require.True(t, planes.Contains(tc.pts[i]))
					}
				}
			})
		}
	}
}

func TestClip_GridBoxes(t *testing.T) {
	pts := testutil.NewRNG(5).GridPoints(600, 2, 8)
	tree, _ := buildPoints(t, pts, 2)

	for _, tr := range traversals {
		c := NewClipConvexPolytope(tree, WithTraversal(tr))
		for x0 := -1.0; x0 < 8; x0 += 2 {
			for y0 := -1.0; y0 < 8; y0 += 3 {
				planes := boxPlanes(x0, x0+2, y0, y0+3)
				c.Clip(planes)

				normals, offsets := splitPlanes(planes)
				wantIn, wantOut := testutil.BruteForceClip(pts, normals, offsets)
				require.Equal(t, wantIn, orNil(sortedIndices(c.Inside().DataIndices())))
				require.Equal(t, wantOut, orNil(sortedIndices(c.Outside().DataIndices())))
			}
		}
	}
}

func TestClip_NoPlanes(t *testing.T) {
	pts := testutil.NewRNG(1).UniformPoints(50, 2)
	tree, _ := buildPoints(t, pts, 2)
	c := NewClipConvexPolytope(tree)

	c.Clip(nil)

	assert.Equal(t, 50, c.Inside().Len())
	assert.Equal(t, 1, c.Inside().NumSubtrees())
	assert.Zero(t, c.Outside().Len())
}

func TestClip_WholeTree(t *testing.T) {
	pts := testutil.NewRNG(1).UniformPoints(50, 2)
	tree, _ := buildPoints(t, pts, 2)
	c := NewClipConvexPolytope(tree)

	c.Clip(boxPlanes(-1, 2, -1, 2))
	assert.Equal(t, 1, c.Inside().NumSubtrees())
	assert.Zero(t, c.Inside().NumNodes())
	assert.Zero(t, c.Outside().Len())

	c.Clip(boxPlanes(5, 6, 5, 6))
	assert.Equal(t, 1, c.Outside().NumSubtrees())
	assert.Zero(t, c.Outside().NumNodes())
	assert.Zero(t, c.Inside().Len())
}

func TestClip_UsesSubtrees(t *testing.T) {
	pts := testutil.NewRNG(13).UniformPoints(4000, 2)
	tree, _ := buildPoints(t, pts, 2)
	c := NewClipConvexPolytope(tree)

	c.Clip(boxPlanes(0.2, 0.8, 0.2, 0.8))

	assert.Positive(t, c.Inside().NumSubtrees())
	assert.Positive(t, c.Outside().NumSubtrees())
	assert.Equal(t, tree.Size(), c.Inside().Len()+c.Outside().Len())
}

func TestClip_TraversalsAgree(t *testing.T) {
	rng := testutil.NewRNG(77)
	pts := rng.UniformPoints(700, 2)
	tree, _ := buildPoints(t, pts, 2)

	flat := NewClipConvexPolytope(tree)
	ref := NewClipConvexPolytope(tree, WithTraversal(TraversalRef))

	for range 20 {
		x, y := rng.Float64(), rng.Float64()
		planes := boxPlanes(x-0.2, x+0.2, y-0.1, y+0.3)
		flat.Clip(planes)
		ref.Clip(planes)

		assert.Equal(t, slices.Collect(ref.Inside().DataIndices()), slices.Collect(flat.Inside().DataIndices()))
		assert.Equal(t, slices.Collect(ref.Outside().DataIndices()), slices.Collect(flat.Outside().DataIndices()))
	}
}

func TestClip_ReuseWithGrowingPlaneCount(t *testing.T) {
	pts := testutil.NewRNG(3).UniformPoints(300, 2)
	tree, _ := buildPoints(t, pts, 2)
	c := NewClipConvexPolytope(tree)

	c.Clip(boxPlanes(0, 0.5, 0, 1)[:1])
	first := c.Inside().Len()

	planes := boxPlanes(0.1, 0.9, 0.1, 0.9)
	planes = append(planes, Hyperplane{Normal: []float64{1, 1}, Offset: 0.6})
	c.Clip(planes)

	normals, offsets := splitPlanes(planes)
	wantIn, _ := testutil.BruteForceClip(pts, normals, offsets)
	assert.Equal(t, wantIn, orNil(sortedIndices(c.Inside().DataIndices())))
	assert.NotEqual(t, first, c.Inside().Len())
}

func TestClip_Valid(t *testing.T) {
	pts := testutil.NewRNG(9).UniformPoints(200, 2)
	tree, _ := buildPoints(t, pts, 2)
	require.Equal(t, 4, tree.InvalidateData(bitmapOf(1, 2, 3, 4)))

	c := NewClipConvexPolytope(tree)
	c.Clip(nil)

	assert.Equal(t, 200, c.Inside().Len())
	assert.Equal(t, 196, c.Inside().ValidLen())
	assert.Equal(t, uint64(196), c.Inside().ValidBitmap().GetCardinality())

	invalid := tree.InvalidData()
	for idx := range c.Inside().ValidDataIndices() {
		assert.False(t, invalid.ContainsInt(idx))
	}
}

func TestClip_EmptyTree(t *testing.T) {
	tree, _ := buildPoints(t, nil, 2)
	c := NewClipConvexPolytope(tree)

	c.Clip(boxPlanes(0, 1, 0, 1))

	assert.Zero(t, c.Inside().Len())
	assert.Zero(t, c.Outside().Len())
}

func BenchmarkClip(b *testing.B) {
	rng := testutil.NewRNG(4711)
	pts := rng.UniformPoints(100_000, 2)
	tree, _ := buildPoints(b, pts, 2)
	planes := boxPlanes(0.25, 0.75, 0.25, 0.75)

	for _, tr := range traversals {
		b.Run(tr.String(), func(b *testing.B) {
			c := NewClipConvexPolytope(tree, WithTraversal(tr))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.Clip(planes)
				for range c.Inside().DataIndices() {
				}
			}
		})
	}
}
