package testutil

import (
	"cmp"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/vecmem/distance"
)

// Neighbor is one exact search result: the position of a vector in the
// dataset and its cosine similarity to the query.
type Neighbor struct {
	Index int
	Score float32
}

// RNG is a seeded random source safe for concurrent use, so load generators
// and parallel subtests can share one deterministic stream.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRNG creates an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))}
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates num vectors with values in range [0, 1).
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return r.rand.Float32() })
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return float32(r.rand.NormFloat64()) })
}

// UnitVectors generates vectors uniformly distributed on the unit sphere.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, vec := range vectors {
		distance.NormalizeL2InPlace(vec)
	}
	return vectors
}

// UnitVector generates a single L2-normalized random vector.
func (r *RNG) UnitVector(dimensions int) []float32 {
	return r.UnitVectors(1, dimensions)[0]
}

func (r *RNG) vectors(num, dimensions int, next func() float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = next()
		}
		vectors[i] = vec
	}

	return vectors
}

// ExactTopK ranks dataset against query by cosine similarity with a full sort.
// Ties are ordered by index ascending. It panics on a dimension mismatch.
func ExactTopK(query []float32, dataset [][]float32, k int) []Neighbor {
	all := make([]Neighbor, len(dataset))
	for i, vec := range dataset {
		score, err := distance.Cosine(query, vec)
		if err != nil {
			panic(err)
		}
		all[i] = Neighbor{Index: i, Score: score}
	}

	slices.SortStableFunc(all, func(a, b Neighbor) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k < len(all) {
		all = all[:k]
	}
	return all
}

// ComputeRecall returns the share of the first k ground-truth indices found in
// got, where k is the shorter length. Two empty rankings agree fully.
func ComputeRecall(groundTruth, got []Neighbor) float64 {
	if len(groundTruth) == 0 || len(got) == 0 {
		if len(groundTruth) == len(got) {
			return 1.0
		}
		return 0.0
	}

	k := min(len(got), len(groundTruth))

	truthSet := make(map[int]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].Index] = struct{}{}
	}

	hits := 0
	for _, r := range got {
		if _, ok := truthSet[r.Index]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
