package kdpool

import (
	"context"
	"errors"
	"iter"
	"math"

	"github.com/hupe1980/kdpool/kdtree"
)

// Search creates a fluent nearest-neighbor query for the given point.
//
// Example:
//
//	nb, err := idx.Search(query).
//	    Within(0.25).
//	    First(ctx)
//
//	// Or over many queries:
//	for nb, err := range idx.Search(queries...).Stream(ctx) {
//	    if err != nil { break }
//	    process(nb)
//	}
func (idx *Index[O]) Search(queries ...[]float64) *SearchBuilder[O] {
	return &SearchBuilder[O]{
		idx:     idx,
		queries: queries,
		maxSq:   math.Inf(1),
	}
}

// SearchBuilder is a fluent builder for nearest-neighbor queries.
type SearchBuilder[O kdtree.RealPoint] struct {
	idx     *Index[O]
	queries [][]float64
	maxSq   float64
}

// Within drops neighbors farther than maxSquaredDistance.
// A dropped neighbor is reported like a miss (Found == false).
func (sb *SearchBuilder[O]) Within(maxSquaredDistance float64) *SearchBuilder[O] {
	sb.maxSq = maxSquaredDistance
	return sb
}

// Execute answers every query and returns the neighbors in query order.
func (sb *SearchBuilder[O]) Execute(ctx context.Context) ([]Neighbor, error) {
	var (
		res []Neighbor
		err error
	)
	if len(sb.queries) == 1 {
		var nb Neighbor
		nb, err = sb.idx.Nearest(ctx, sb.queries[0])
		res = []Neighbor{nb}
	} else {
		res, err = sb.idx.NearestBatch(ctx, sb.queries)
	}
	if err != nil {
		return nil, err
	}

	for i := range res {
		if res[i].Found && res[i].SquaredDistance > sb.maxSq {
			res[i] = Neighbor{DataIndex: -1, SquaredDistance: math.Inf(1)}
		}
	}
	return res, nil
}

// Stream yields the neighbor of each query in query order.
// Iteration stops at the first error.
func (sb *SearchBuilder[O]) Stream(ctx context.Context) iter.Seq2[Neighbor, error] {
	return func(yield func(Neighbor, error) bool) {
		res, err := sb.Execute(ctx)
		if err != nil {
			yield(Neighbor{DataIndex: -1, SquaredDistance: math.Inf(1)}, err)
			return
		}
		for _, nb := range res {
			if !yield(nb, nil) {
				return
			}
		}
	}
}

// First returns the neighbor of the first query, or ErrNotFound.
func (sb *SearchBuilder[O]) First(ctx context.Context) (Neighbor, error) {
	if len(sb.queries) == 0 {
		return Neighbor{DataIndex: -1, SquaredDistance: math.Inf(1)}, ErrNotFound
	}
	sb.queries = sb.queries[:1]
	res, err := sb.Execute(ctx)
	if err != nil {
		return Neighbor{DataIndex: -1, SquaredDistance: math.Inf(1)}, err
	}
	if !res[0].Found {
		return res[0], ErrNotFound
	}
	return res[0], nil
}

// Exists reports whether the first query has a neighbor.
func (sb *SearchBuilder[O]) Exists(ctx context.Context) (bool, error) {
	_, err := sb.First(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
