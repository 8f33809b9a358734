package distance

import (
	"fmt"
	"math"
	"slices"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Cosine returns the cosine similarity of a and b: their dot product divided by
// the product of their magnitudes.
//
// If either vector has zero magnitude the similarity is 0. Vectors holding Inf
// or NaN components also score 0. The result is clamped to [-1, 1].
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}

	dot, normA, normB := kernelCosineParts(a, b)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return similarity(dot, math.Sqrt(normA), math.Sqrt(normB)), nil
}

// CosineNormalized returns the cosine similarity of a and b given their
// magnitudes as returned by Norm. Scans that keep a norm next to each stored
// vector use it to avoid recomputing magnitudes per comparison.
func CosineNormalized(a []float32, normA float64, b []float32, normB float64) (float32, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return similarity(kernelDot(a, b), normA, normB), nil
}

func similarity(dot, normA, normB float64) float32 {
	sim := dot / (normA * normB)

	switch {
	case math.IsNaN(sim) || math.IsInf(sim, 0):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return float32(sim)
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return float32(kernelDot(a, b))
}

// Norm returns the L2 magnitude of v. It is computed in float64 so that it
// stays finite and non-zero for every finite, non-zero float32 vector.
func Norm(v []float32) float64 {
	return math.Sqrt(kernelDot(v, v))
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero or non-finite L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm := Norm(v)
	if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
		return false
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}
