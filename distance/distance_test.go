package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withKernel(t *testing.T, k Kernel) {
	t.Helper()
	prev := activeKernel
	useKernel(k)
	t.Cleanup(func() { useKernel(prev) })
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"Opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"Diagonal", []float32{1, 0}, []float32{0.5, 0.5}, float32(1 / math.Sqrt2)},
		{"ScaleInvariant", []float32{2, 0}, []float32{10, 0}, 1},
		{"ZeroLeft", []float32{0, 0}, []float32{1, 1}, 0},
		{"ZeroRight", []float32{3, 4}, []float32{0, 0}, 0},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, k := range []Kernel{KernelGeneric, KernelUnrolled} {
		t.Run(k.String(), func(t *testing.T) {
			withKernel(t, k)
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := Cosine(tt.a, tt.b)
					require.NoError(t, err)
					assert.InDelta(t, tt.expected, got, 1e-6)
					assert.False(t, math.IsNaN(float64(got)))
				})
			}
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2, 3}, []float32{1, 2})
	require.Error(t, err)

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)

	_, err = CosineNormalized([]float32{1}, 1, []float32{1, 0}, 1)
	require.ErrorAs(t, err, &dm)
}

func TestCosineBounds(t *testing.T) {
	a := make([]float32, 37)
	b := make([]float32, 37)
	for i := range a {
		a[i] = float32(math.Sin(float64(i)))
		b[i] = float32(math.Cos(float64(i) * 1.7))
	}

	for _, k := range []Kernel{KernelGeneric, KernelUnrolled} {
		withKernel(t, k)
		got, err := Cosine(a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, float32(-1))
		assert.LessOrEqual(t, got, float32(1))

		self, err := Cosine(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1, self, 1e-6)
	}
}

func TestCosineExtremeMagnitudes(t *testing.T) {
	maxF := float32(math.MaxFloat32)

	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"LargeIdentical", []float32{1e20, 0}, []float32{1e20, 0}, 1},
		{"LargeOpposite", []float32{1e20, 3e19}, []float32{-1e20, -3e19}, -1},
		{"MaxFloat", []float32{maxF, maxF}, []float32{maxF, maxF}, 1},
		{"TinyIdentical", []float32{1e-23, 0}, []float32{1e-23, 0}, 1},
		{"Subnormal", []float32{1e-45, 1e-45}, []float32{1e-45, 0}, float32(1 / math.Sqrt2)},
		{"MixedScale", []float32{1e20, 0}, []float32{1e-20, 0}, 1},
	}

	for _, k := range []Kernel{KernelGeneric, KernelUnrolled} {
		t.Run(k.String(), func(t *testing.T) {
			withKernel(t, k)
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := Cosine(tt.a, tt.b)
					require.NoError(t, err)
					assert.InDelta(t, tt.expected, got, 1e-6)

					got, err = CosineNormalized(tt.a, Norm(tt.a), tt.b, Norm(tt.b))
					require.NoError(t, err)
					assert.InDelta(t, tt.expected, got, 1e-6)
				})
			}
		})
	}

	t.Run("NormStaysFinite", func(t *testing.T) {
		big := []float32{maxF, maxF, maxF}
		assert.False(t, math.IsInf(Norm(big), 0))
		assert.Greater(t, Norm([]float32{1e-45}), 0.0)
	})

	t.Run("NonFiniteComponents", func(t *testing.T) {
		inf := float32(math.Inf(1))
		nan := float32(math.NaN())
		for _, v := range [][]float32{{inf, 0}, {nan, 1}} {
			got, err := Cosine(v, []float32{1, 0})
			require.NoError(t, err)
			assert.Equal(t, float32(0), got)
		}
	})

	t.Run("NormalizeLarge", func(t *testing.T) {
		v := []float32{3e38, 2e38}
		require.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 1.0, Norm(v), 1e-6)
	})
}

func TestCosineNormalized(t *testing.T) {
	a := []float32{3, 4}
	b := []float32{4, 3}

	want, err := Cosine(a, b)
	require.NoError(t, err)

	got, err := CosineNormalized(a, Norm(a), b, Norm(b))
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-6)

	got, err = CosineNormalized(a, Norm(a), []float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(0), got)
}

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Single", []float32{2}, []float32{3}, 6},
		{"Large", ones(1029), ones(1029), 1029},
	}

	for _, k := range []Kernel{KernelGeneric, KernelUnrolled} {
		t.Run(k.String(), func(t *testing.T) {
			withKernel(t, k)
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-3)
				})
			}
		})
	}
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		ok := NormalizeL2InPlace(v)
		assert.True(t, ok)
		assert.InDelta(t, float32(0.6), v[0], 1e-5)
		assert.InDelta(t, float32(0.8), v[1], 1e-5)
		assert.InDelta(t, float32(1.0), Norm(v), 1e-5)

		assert.False(t, NormalizeL2InPlace([]float32{0, 0}))
		assert.False(t, NormalizeL2InPlace([]float32{}))
	})

	t.Run("Copy", func(t *testing.T) {
		v := []float32{1, 0}
		dst, ok := NormalizeL2Copy(v)
		assert.True(t, ok)
		assert.Equal(t, float32(1), dst[0])
		assert.NotSame(t, &v[0], &dst[0])

		dst, ok = NormalizeL2Copy([]float32{0, 0})
		assert.False(t, ok)
		assert.Nil(t, dst)
	})
}

func TestParseKernel(t *testing.T) {
	k, ok := ParseKernel(" Unrolled ")
	assert.True(t, ok)
	assert.Equal(t, KernelUnrolled, k)

	k, ok = ParseKernel("generic")
	assert.True(t, ok)
	assert.Equal(t, KernelGeneric, k)

	_, ok = ParseKernel("avx9000")
	assert.False(t, ok)

	assert.Equal(t, "unknown", Kernel(42).String())
	assert.Contains(t, []Kernel{KernelGeneric, KernelUnrolled}, ActiveKernel())
}

func ones(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
