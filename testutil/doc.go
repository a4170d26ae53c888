// Package testutil provides testing utilities for cascade.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for descriptor sets and keypoints,
// brute-force nearest neighbors as ground truth, and match recall.
//
// # Descriptor Generation
//
//	rng := testutil.NewRNG(seed)
//	a := rng.UniformDescriptors(500, 128)                 // flat, [0, 1)
//	perm := rng.Perm(500)
//	b := testutil.PerturbedCopy(a, 128, perm, rng, 1e-4)  // b[i] ≈ a[perm[i]]
//
// # Ground Truth
//
//	nn := testutil.BruteForce(b, a, 128)
//	recall := testutil.MatchRecall(expected, got)
package testutil
