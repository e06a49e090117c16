package kdtree

import (
	"fmt"
	"math"

	"github.com/hupe1980/kdpool/pool"
)

type buildOptions struct {
	poolOptions []pool.Option
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithNodePoolOptions passes options to the node pool (off-heap storage, memory accounting).
func WithNodePoolOptions(opts ...pool.Option) BuildOption {
	return func(o *buildOptions) {
		o.poolOptions = append(o.poolOptions, opts...)
	}
}

// Build constructs a balanced tree over objects, whose indices refer to objectPool.
//
// Coordinates are copied into a fresh node pool in input order and then
// partitioned in place by median along dimension depth mod n. An empty
// collection yields an empty tree.
func Build[O RealPoint](objects Collection[O], objectPool ObjectPool[O], optFns ...BuildOption) (*Tree[O], error) {
	var o buildOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	t := &Tree[O]{
		objects: objectPool,
		root:    noChild,
	}

	hint := objects.Len()
	if hint == 0 {
		return t, nil
	}
	if hint > math.MaxInt32 {
		return nil, ErrTooManyPoints
	}

	var (
		nodes *pool.Pool
		ref   *pool.Ref
		n     int
	)
	for obj := range objects.All() {
		if nodes == nil {
			n = obj.NumDimensions()
			if n < 1 {
				return nil, ErrNoDimensions
			}
			p, err := pool.New(n+2, append([]pool.Option{pool.WithCapacity(hint)}, o.poolOptions...)...)
			if err != nil {
				return nil, err
			}
			nodes = p
			ref = nodes.CreateRef()
			t.min = make([]float64, n)
			t.max = make([]float64, n)
			for d := range n {
				t.min[d] = math.Inf(1)
				t.max[d] = math.Inf(-1)
			}
		} else if obj.NumDimensions() != n {
			_ = nodes.Close()
			return nil, fmt.Errorf("%w: object %d has %d dimensions, want %d", ErrMixedDimensions, obj.Index(), obj.NumDimensions(), n)
		}

		if nodes.Size() == math.MaxInt32 {
			_ = nodes.Close()
			return nil, ErrTooManyPoints
		}
		if _, err := nodes.Create(ref); err != nil {
			_ = nodes.Close()
			return nil, err
		}
		for d := range n {
			x := obj.DoublePosition(d)
			ref.SetFloat(d, x)
			t.min[d] = min(t.min[d], x)
			t.max[d] = max(t.max[d], x)
		}
		ref.SetBits(n, packLinks(noChild, noChild))
		ref.SetBits(n+1, packData(0, obj.Index()))
	}

	if nodes == nil {
		return t, nil
	}
	nodes.ReleaseRef(ref)

	t.n = n
	t.nodes = nodes
	t.size = nodes.Len()

	b := &builder{
		nodes: nodes,
		n:     n,
		pivot: nodes.CreateRef(),
		ri:    nodes.CreateRef(),
		rj:    nodes.CreateRef(),
	}
	t.root = b.makeNode(0, t.size-1, 0, 0)
	t.height = b.height

	return t, nil
}

// builder partitions the node pool in place using three scratch refs.
type builder struct {
	nodes  *pool.Pool
	n      int
	height int

	pivot *pool.Ref
	ri    *pool.Ref
	rj    *pool.Ref
}

// makeNode builds the subtree over node range [i, j] splitting on dimension d
// and returns its root index, or -1 for an empty range.
func (b *builder) makeNode(i, j, d, depth int) int {
	if i > j {
		return noChild
	}
	b.height = max(b.height, depth+1)
	if i == j {
		return i
	}

	k := i + (j-i)/2
	b.kthElement(i, j, k, d)

	dChild := d + 1
	if dChild == b.n {
		dChild = 0
	}
	left := b.makeNode(i, k-1, dChild, depth+1)
	right := b.makeNode(k+1, j, dChild, depth+1)

	b.nodes.GetByIndex(k, b.pivot).SetBits(b.n, packLinks(left, right))
	return k
}

// kthElement reorders [i, j] so that node k holds the value that would be at
// k if the range were sorted along d, with no larger values before it and no
// smaller values after it.
func (b *builder) kthElement(i, j, k, d int) {
	for i < j {
		p := b.partitionSubList(i, j, d)
		switch {
		case p == k:
			return
		case p < k:
			i = p + 1
		default:
			j = p - 1
		}
	}
}

// partitionSubList partitions [i, j] around the median of nodes i, mid and j
// along d and returns the final pivot position. Both scans stop on values equal
// to the pivot, so equal values may land on either side of it.
func (b *builder) partitionSubList(i, j, d int) int {
	pivotIndex := j
	b.nodes.Swap(b.medianOfThree(i, i+(j-i)/2, j, d), pivotIndex)
	pivot := b.nodes.GetByIndex(pivotIndex, b.pivot).Float(d)

	j--
	for {
		for i <= j && b.nodes.GetByIndex(i, b.ri).Float(d) < pivot {
			i++
		}
		for i <= j && b.nodes.GetByIndex(j, b.rj).Float(d) > pivot {
			j--
		}
		if i >= j {
			break
		}
		b.nodes.Swap(i, j)
		i++
		j--
	}

	b.nodes.Swap(i, pivotIndex)
	return i
}

// medianOfThree returns whichever of nodes x, y and z holds the median value along d.
func (b *builder) medianOfThree(x, y, z, d int) int {
	vx := b.nodes.GetByIndex(x, b.ri).Float(d)
	vy := b.nodes.GetByIndex(y, b.rj).Float(d)
	vz := b.nodes.GetByIndex(z, b.pivot).Float(d)

	switch {
	case (vx <= vy && vy <= vz) || (vz <= vy && vy <= vx):
		return y
	case (vy <= vx && vx <= vz) || (vz <= vx && vx <= vy):
		return x
	default:
		return z
	}
}
