// Package testutil provides testing utilities for kdpool.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random point sets, loading them into
// point pools, and computing exact ground truth by brute force.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(1000, 3)   // uniform [0, 1)
//	pts = rng.GridPoints(1000, 2, 8)    // integer grid, many ties
//
// # Ground Truth
//
//	nn := testutil.BruteForceNearest(pts, query)
//	above, below := testutil.BruteForceSplit(pts, normal, offset)
//	inside, outside := testutil.BruteForceClip(pts, normals, offsets)
package testutil
