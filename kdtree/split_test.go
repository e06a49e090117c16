package kdtree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdpool/testutil"
)

func TestSplit_Concrete(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 1}, {2, 2}, {-1, 3}}
	tree, _ := buildPoints(t, pts, 2)

	for _, tr := range traversals {
		t.Run(tr.String(), func(t *testing.T) {
			s := NewSplitHyperPlane(tree, WithTraversal(tr))
			s.Split(Hyperplane{Normal: []float64{1, 0}, Offset: 1})

			var above, below []string
			for p := range s.Above().All() {
				above = append(above, p.String())
			}
			for p := range s.Below().All() {
				below = append(below, p.String())
			}
			slices.Sort(above)
			slices.Sort(below)

			assert.Equal(t, []string{"(1, 1)", "(2, 2)"}, above)
			assert.Equal(t, []string{"(-1, 3)", "(0, 0)"}, below)
			assert.Equal(t, 2, s.Above().Len())
			assert.Equal(t, 2, s.Below().Len())
		})
	}
}

func TestSplit_BruteForce(t *testing.T) {
	rng := testutil.NewRNG(4711)

	cases := []struct {
		name string
		dim  int
		pts  [][]float64
	}{
		{"uniform-2d", 2, rng.UniformPoints(1000, 2)},
		{"uniform-4d", 4, rng.UniformPoints(700, 4)},
		{"grid-3d", 3, rng.GridPoints(500, 3, 5)},
	}

	for _, tc := range cases {
		tree, _ := buildPoints(t, tc.pts, tc.dim)

		for _, tr := range traversals {
			t.Run(tc.name+"/"+tr.String(), func(t *testing.T) {
				s := NewSplitHyperPlane(tree, WithTraversal(tr))
				for range 50 {
					normal := rng.UnitVector(tc.dim)
					center := rng.UniformPoints(1, tc.dim)[0]
					plane := Hyperplane{Normal: normal, Offset: dot(normal, center)}

					s.Split(plane)
					wantAbove, wantBelow := testutil.BruteForceSplit(tc.pts, normal, plane.Offset)

					gotAbove := orNil(sortedIndices(s.Above().DataIndices()))
					gotBelow := orNil(sortedIndices(s.Below().DataIndices()))
					require.Equal(t, wantAbove, gotAbove)
					require.Equal(t, wantBelow, gotBelow)
					require.Equal(t, tree.Size(), s.Above().Len()+s.Below().Len())
					require.Equal(t, gotAbove, orNil(bitmapInts(s.Above().Bitmap())))
				}
			})
		}
	}
}

func TestSplit_AxisAlignedOnGrid(t *testing.T) {
	// Planes through grid coordinates put many points exactly on the plane.
	pts := testutil.NewRNG(5).GridPoints(400, 2, 6)
	tree, _ := buildPoints(t, pts, 2)

	for _, tr := range traversals {
		s := NewSplitHyperPlane(tree, WithTraversal(tr))
		for _, normal := range [][]float64{{1, 0}, {0, 1}, {-1, 0}, {0, -1}} {
			for off := -6.0; off <= 6; off++ {
				s.Split(Hyperplane{Normal: normal, Offset: off})
				wantAbove, wantBelow := testutil.BruteForceSplit(pts, normal, off)
				require.Equal(t, wantAbove, orNil(sortedIndices(s.Above().DataIndices())))
				require.Equal(t, wantBelow, orNil(sortedIndices(s.Below().DataIndices())))
			}
		}
	}
}

func TestSplit_UsesSubtrees(t *testing.T) {
	pts := testutil.NewRNG(11).UniformPoints(2000, 2)
	tree, _ := buildPoints(t, pts, 2)

	s := NewSplitHyperPlane(tree)
	s.Split(Hyperplane{Normal: []float64{1, 0}, Offset: 0.5})

	assert.Positive(t, s.Above().NumSubtrees())
	assert.Positive(t, s.Below().NumSubtrees())
	assert.Less(t, s.Above().NumNodes()+s.Below().NumNodes(), tree.Size())
}

func TestSplit_WholeTreeOneSide(t *testing.T) {
	pts := testutil.NewRNG(3).UniformPoints(100, 2)
	tree, _ := buildPoints(t, pts, 2)
	s := NewSplitHyperPlane(tree)

	s.Split(Hyperplane{Normal: []float64{1, 0}, Offset: -1})
	assert.Equal(t, 1, s.Above().NumSubtrees())
	assert.Zero(t, s.Above().NumNodes())
	assert.Equal(t, 100, s.Above().Len())
	assert.Zero(t, s.Below().Len())

	s.Split(Hyperplane{Normal: []float64{1, 0}, Offset: 2})
	assert.Zero(t, s.Above().Len())
	assert.Equal(t, 100, s.Below().Len())
}

func TestSplit_TraversalsAgree(t *testing.T) {
	rng := testutil.NewRNG(21)
	pts := rng.UniformPoints(600, 3)
	tree, _ := buildPoints(t, pts, 3)

	flat := NewSplitHyperPlane(tree)
	ref := NewSplitHyperPlane(tree, WithTraversal(TraversalRef))

	for range 20 {
		plane := Hyperplane{Normal: rng.UnitVector(3), Offset: rng.Float64() - 0.5}
		flat.Split(plane)
		ref.Split(plane)

		assert.Equal(t, slices.Collect(ref.Above().DataIndices()), slices.Collect(flat.Above().DataIndices()))
		assert.Equal(t, slices.Collect(ref.Below().DataIndices()), slices.Collect(flat.Below().DataIndices()))
	}
}

func TestSplit_Valid(t *testing.T) {
	pts := testutil.NewRNG(8).UniformPoints(300, 2)
	tree, _ := buildPoints(t, pts, 2)

	invalid := tree.InvalidateData(bitmapOf(0, 5, 10, 15, 20, 299))
	require.Equal(t, 6, invalid)

	s := NewSplitHyperPlane(tree)
	s.Split(Hyperplane{Normal: []float64{0, 1}, Offset: 0.5})

	all := s.Above().Bitmap()
	all.Or(s.Below().Bitmap())
	assert.Equal(t, uint64(300), all.GetCardinality())

	valid := s.Above().ValidBitmap()
	valid.Or(s.Below().ValidBitmap())
	assert.Equal(t, uint64(294), valid.GetCardinality())
	assert.False(t, valid.Intersects(tree.InvalidData()))
	assert.Equal(t, 294, s.Above().ValidLen()+s.Below().ValidLen())

	n := 0
	for p := range s.Above().Valid() {
		require.False(t, tree.InvalidData().ContainsInt(p.Index()))
		n++
	}
	assert.Equal(t, s.Above().ValidLen(), n)
}

func TestSplit_EmptyTree(t *testing.T) {
	tree, _ := buildPoints(t, nil, 2)
	s := NewSplitHyperPlane(tree)

	s.Split(Hyperplane{Normal: []float64{1, 0}, Offset: 0})

	assert.Zero(t, s.Above().Len())
	assert.Zero(t, s.Below().Len())
	assert.True(t, s.Above().Bitmap().IsEmpty())
}

func TestResult_EarlyBreak(t *testing.T) {
	pts := testutil.NewRNG(2).UniformPoints(500, 2)
	tree, _ := buildPoints(t, pts, 2)
	s := NewSplitHyperPlane(tree)
	s.Split(Hyperplane{Normal: []float64{1, 1}, Offset: 1})

	n := 0
	for range s.Above().All() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func BenchmarkSplit(b *testing.B) {
	rng := testutil.NewRNG(4711)
	pts := rng.UniformPoints(100_000, 3)
	tree, _ := buildPoints(b, pts, 3)
	plane := Hyperplane{Normal: rng.UnitVector(3), Offset: 0.5}

	for _, tr := range traversals {
		b.Run(tr.String(), func(b *testing.B) {
			s := NewSplitHyperPlane(tree, WithTraversal(tr))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Split(plane)
				for range s.Above().DataIndices() {
				}
			}
		})
	}
}
