// Package testutil provides testing utilities for vecmem.
//
// This package is intended for use in tests, benchmarks and examples only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and comparing rankings.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec)              // uniform [0, 1)
//	vecs := rng.UnitVectors(100, 128) // on the unit sphere
//
// # Exact Search (Ground Truth)
//
//	results := testutil.ExactTopK(query, dataset, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(exactResults, otherResults)
package testutil
