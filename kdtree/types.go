package kdtree

import (
	"errors"
	"iter"

	"github.com/hupe1980/kdpool/distance"
)

var (
	// ErrTooManyPoints is returned when the input exceeds the int32 node index space.
	ErrTooManyPoints = errors.New("kdtree: too many points")
	// ErrNoDimensions is returned when input objects have no coordinates.
	ErrNoDimensions = errors.New("kdtree: objects must have at least one dimension")
	// ErrMixedDimensions is returned when input objects disagree on dimensionality.
	ErrMixedDimensions = errors.New("kdtree: objects have different dimensionality")
)

// RealPoint is a pooled object with a stable integer identity and real coordinates.
type RealPoint interface {
	// Index returns the object's index in its pool.
	Index() int
	NumDimensions() int
	DoublePosition(d int) float64
}

// ObjectPool resolves pool indices to flyweight objects.
type ObjectPool[O any] interface {
	CreateRef() O
	ReleaseRef(ref O)
	GetByIndex(index int, ref O) O
}

// Collection is a sized, iterable set of pooled objects.
type Collection[O any] interface {
	Len() int
	All() iter.Seq[O]
}

// Hyperplane is the half-space dot(Normal, x) >= Offset.
type Hyperplane struct {
	Normal []float64
	Offset float64
}

// Above reports whether p lies in the half-space.
func (h Hyperplane) Above(p []float64) bool {
	return distance.Dot(h.Normal, p) >= h.Offset
}

// ConvexPolytope is the intersection of a set of half-spaces.
type ConvexPolytope []Hyperplane

// Contains reports whether p satisfies every half-space.
func (c ConvexPolytope) Contains(p []float64) bool {
	for _, h := range c {
		if !h.Above(p) {
			return false
		}
	}
	return true
}

// Traversal selects how a query walks the node pool.
type Traversal int

const (
	// TraversalFlat reads nodes straight from the flat float64 backing slice.
	TraversalFlat Traversal = iota
	// TraversalRef reads nodes through a node-indexed flyweight ref.
	TraversalRef
)

func (t Traversal) String() string {
	switch t {
	case TraversalFlat:
		return "flat"
	case TraversalRef:
		return "ref"
	default:
		return "unknown"
	}
}

type queryOptions struct {
	traversal Traversal
	onlyValid bool
}

// QueryOption configures a query object.
type QueryOption func(*queryOptions)

// WithTraversal selects the node traversal of a query.
func WithTraversal(t Traversal) QueryOption {
	return func(o *queryOptions) {
		o.traversal = t
	}
}

// OnlyValid restricts nearest-neighbor results to valid nodes.
// Invalid nodes are still traversed for pruning but never returned.
func OnlyValid() QueryOption {
	return func(o *queryOptions) {
		o.onlyValid = true
	}
}

func applyQueryOptions(optFns []QueryOption) queryOptions {
	o := queryOptions{traversal: TraversalFlat}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
