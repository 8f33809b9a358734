// Package distance provides the similarity math used by vecmem.
//
// Cosine is the ranking function for every search in vecmem. The dot and norm
// kernels behind it are selected once at init based on CPU capabilities:
//   - unrolled: 8-way unrolled loops, chosen when AVX2 (amd64) or ASIMD (arm64) is present
//   - generic: straightforward loops, used everywhere else
//
// Set VECMEM_KERNEL=generic or VECMEM_KERNEL=unrolled to force a kernel.
//
// # Usage
//
//	sim, err := distance.Cosine(a, b)
//	dot := distance.Dot(a, b)
//	normalized, ok := distance.NormalizeL2Copy(vec)
package distance
