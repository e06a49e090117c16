package pool

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// PointPool is a pool of n-dimensional real points.
// Each record holds the point's coordinates and nothing else.
type PointPool struct {
	pool    *Pool
	dim     int
	refs    []*Point
	scratch *Point
}

// Point is a flyweight view of one record in a PointPool.
type Point struct {
	ref *Ref
	dim int
}

// NewPointPool creates a pool of dim-dimensional points.
func NewPointPool(dim int, optFns ...Option) (*PointPool, error) {
	p, err := New(dim, optFns...)
	if err != nil {
		return nil, err
	}
	pp := &PointPool{pool: p, dim: dim}
	pp.scratch = pp.CreateRef()
	return pp, nil
}

// Dim returns the dimensionality of the points.
func (pp *PointPool) Dim() int { return pp.dim }

// Pool returns the underlying record pool.
func (pp *PointPool) Pool() *Pool { return pp.pool }

// Len returns the number of live points.
func (pp *PointPool) Len() int { return pp.pool.Len() }

// CreateRef returns an unbound point cursor.
func (pp *PointPool) CreateRef() *Point {
	if n := len(pp.refs); n > 0 {
		p := pp.refs[n-1]
		pp.refs = pp.refs[:n-1]
		return p
	}
	return &Point{ref: pp.pool.CreateRef(), dim: pp.dim}
}

// ReleaseRef returns a point cursor for reuse.
func (pp *PointPool) ReleaseRef(p *Point) {
	if p == nil {
		return
	}
	p.ref.index = -1
	pp.refs = append(pp.refs, p)
}

// GetByIndex points ref at point index and returns it.
func (pp *PointPool) GetByIndex(index int, ref *Point) *Point {
	pp.pool.GetByIndex(index, ref.ref)
	return ref
}

// Create allocates a point at the origin and points ref at it.
func (pp *PointPool) Create(ref *Point) (*Point, error) {
	if _, err := pp.pool.Create(ref.ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// Add allocates a point with the given coordinates and returns its index.
func (pp *PointPool) Add(coords ...float64) (int, error) {
	if len(coords) != pp.dim {
		return -1, fmt.Errorf("pool: point has %d coordinates, want %d", len(coords), pp.dim)
	}
	p, err := pp.Create(pp.scratch)
	if err != nil {
		return -1, err
	}
	p.SetPositions(coords)
	return p.Index(), nil
}

// Delete frees the point ref points at.
func (pp *PointPool) Delete(ref *Point) {
	pp.pool.Delete(ref.ref)
}

// All iterates the live points in index order.
// The yielded point is a single reused cursor; copy it with RefTo to keep it.
func (pp *PointPool) All() iter.Seq[*Point] {
	return func(yield func(*Point) bool) {
		p := pp.CreateRef()
		defer pp.ReleaseRef(p)
		for range pp.pool.All(p.ref) {
			if !yield(p) {
				return
			}
		}
	}
}

// Close releases the backing storage.
func (pp *PointPool) Close() error {
	return pp.pool.Close()
}

// Index returns the pool index of the point.
func (p *Point) Index() int { return p.ref.index }

// NumDimensions returns the dimensionality of the point.
func (p *Point) NumDimensions() int { return p.dim }

// DoublePosition returns coordinate d.
func (p *Point) DoublePosition(d int) float64 { return p.ref.Float(d) }

// SetPosition sets coordinate d.
func (p *Point) SetPosition(d int, v float64) { p.ref.SetFloat(d, v) }

// SetPositions copies coords into the point.
func (p *Point) SetPositions(coords []float64) {
	copy(p.ref.Slots(), coords)
}

// Localize copies the coordinates into dst.
func (p *Point) Localize(dst []float64) {
	copy(dst, p.ref.Slots())
}

// RefTo points p at the record other points at and returns p.
func (p *Point) RefTo(other *Point) *Point {
	p.ref.RefTo(other.ref)
	p.dim = other.dim
	return p
}

func (p *Point) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for d := 0; d < p.dim; d++ {
		if d > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(p.DoublePosition(d), 'g', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}
