package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/kdpool/distance"
	"github.com/hupe1980/kdpool/pool"
)

// SearchResult represents a search result.
type SearchResult struct {
	Index           int
	SquaredDistance float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// UniformPoints generates random points with coordinates in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformPoints(num, dimensions int) [][]float64 {
	return r.UniformRangePoints(num, dimensions, 0, 1)
}

// UniformRangePoints generates random points with coordinates in [minVal, maxVal).
func (r *RNG) UniformRangePoints(num, dimensions int, minVal, maxVal float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	points := make([][]float64, num)
	span := maxVal - minVal

	for i := range num {
		p := data[i*dimensions : (i+1)*dimensions]
		for j := range p {
			p[j] = minVal + r.rand.Float64()*span
		}
		points[i] = p
	}

	return points
}

// GridPoints generates points with small integer coordinates in [0, levels).
// Many points share coordinates, which exercises ties at split values.
func (r *RNG) GridPoints(num, dimensions, levels int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	points := make([][]float64, num)

	for i := range num {
		p := data[i*dimensions : (i+1)*dimensions]
		for j := range p {
			p[j] = float64(r.rand.Intn(levels))
		}
		points[i] = p
	}

	return points
}

// ClusteredPoints generates points clustered around random centroids in [0, 1).
func (r *RNG) ClusteredPoints(num, dim, clusters int, spread float64) [][]float64 {
	centroids := r.UniformPoints(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([][]float64, num)

	for i := range num {
		centroid := centroids[i%clusters]
		p := data[i*dim : (i+1)*dim]
		for j := range dim {
			p[j] = centroid[j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
	}

	return points
}

// UnitVector generates a single L2-normalized random vector.
func (r *RNG) UnitVector(dimensions int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float64, dimensions)
	var norm float64
	for j := range vec {
		v := r.rand.NormFloat64()
		vec[j] = v
		norm += v * v
	}

	if norm == 0 {
		vec[0], norm = 1, 1
	}

	inv := 1 / math.Sqrt(norm)
	for j := range vec {
		vec[j] *= inv
	}
	return vec
}

// NewPointPool returns a point pool holding points in order, so that the
// pool index of points[i] is i.
func NewPointPool(points [][]float64, dim int, optFns ...pool.Option) (*pool.PointPool, error) {
	pp, err := pool.NewPointPool(dim, append([]pool.Option{pool.WithCapacity(len(points))}, optFns...)...)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		if _, err := pp.Add(p...); err != nil {
			_ = pp.Close()
			return nil, err
		}
	}
	return pp, nil
}

// BruteForceNearest returns the exact nearest point to query. Ties keep the
// lowest index. Index is -1 for an empty input.
func BruteForceNearest(points [][]float64, query []float64) SearchResult {
	best := SearchResult{Index: -1, SquaredDistance: math.Inf(1)}
	for i, p := range points {
		if d := distance.SquaredL2(query, p); d < best.SquaredDistance {
			best = SearchResult{Index: i, SquaredDistance: d}
		}
	}
	return best
}

// BruteForceSearch performs exact k nearest search for ground truth.
func BruteForceSearch(points [][]float64, query []float64, k int) []SearchResult {
	results := make([]SearchResult, len(points))
	for i, p := range points {
		results[i] = SearchResult{Index: i, SquaredDistance: distance.SquaredL2(query, p)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SquaredDistance < results[j].SquaredDistance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// BruteForceSplit returns the sorted indices of points with
// dot(normal, p) >= offset and of the remaining points.
func BruteForceSplit(points [][]float64, normal []float64, offset float64) (above, below []int) {
	for i, p := range points {
		if distance.Dot(normal, p) >= offset {
			above = append(above, i)
		} else {
			below = append(below, i)
		}
	}
	return above, below
}

// BruteForceClip returns the sorted indices of points satisfying
// dot(normals[k], p) >= offsets[k] for every k, and of the remaining points.
func BruteForceClip(points [][]float64, normals [][]float64, offsets []float64) (inside, outside []int) {
	for i, p := range points {
		in := true
		for k, normal := range normals {
			if distance.Dot(normal, p) < offsets[k] {
				in = false
				break
			}
		}
		if in {
			inside = append(inside, i)
		} else {
			outside = append(outside, i)
		}
	}
	return inside, outside
}
