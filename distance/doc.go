// Package distance provides float64 distance kernels for point queries.
//
// # Functions
//
//   - SquaredL2: squared Euclidean distance (used for pruning, no sqrt)
//   - Dot: inner product (used for hyperplane side tests)
//   - NormalizeL2InPlace / NormalizeL2Copy: unit-length plane normals
//
// # Usage
//
//	d2 := distance.SquaredL2(a, b)
//	side := distance.Dot(normal, p) >= offset
package distance
