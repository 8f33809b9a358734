package distance

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Kernel identifies the loop implementation used for dot products and norms.
type Kernel uint8

const (
	// KernelGeneric is the plain single-accumulator loop.
	KernelGeneric Kernel = iota
	// KernelUnrolled uses 8 independent accumulators.
	KernelUnrolled
)

// String returns the string representation of a Kernel.
func (k Kernel) String() string {
	switch k {
	case KernelGeneric:
		return "generic"
	case KernelUnrolled:
		return "unrolled"
	default:
		return "unknown"
	}
}

// ParseKernel parses a string into a Kernel value.
func ParseKernel(s string) (Kernel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return KernelGeneric, true
	case "unrolled":
		return KernelUnrolled, true
	default:
		return KernelGeneric, false
	}
}

var activeKernel Kernel

// Kernel function pointers, set once at init.
var (
	kernelDot         = dotGeneric
	kernelCosineParts = cosinePartsGeneric
)

func init() {
	k := selectKernel()
	if override := os.Getenv("VECMEM_KERNEL"); override != "" {
		if parsed, ok := ParseKernel(override); ok {
			k = parsed
		}
	}
	useKernel(k)
}

// ActiveKernel returns the kernel selected at init.
func ActiveKernel() Kernel {
	return activeKernel
}

func selectKernel() Kernel {
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
			return KernelUnrolled
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return KernelUnrolled
		}
	}
	return KernelGeneric
}

func useKernel(k Kernel) {
	activeKernel = k
	switch k {
	case KernelUnrolled:
		kernelDot = dotUnrolled
		kernelCosineParts = cosinePartsUnrolled
	default:
		kernelDot = dotGeneric
		kernelCosineParts = cosinePartsGeneric
	}
}

// Kernels accumulate in float64. Every product of two finite float32 values is
// representable there, so large and tiny magnitudes neither overflow nor flush
// to zero.

func dotGeneric(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func dotUnrolled(a, b []float32) float64 {
	n := len(a)
	b = b[:n]

	var s0, s1, s2, s3, s4, s5, s6, s7 float64

	i := 0
	for ; i+8 <= n; i += 8 {
		s0 += float64(a[i]) * float64(b[i])
		s1 += float64(a[i+1]) * float64(b[i+1])
		s2 += float64(a[i+2]) * float64(b[i+2])
		s3 += float64(a[i+3]) * float64(b[i+3])
		s4 += float64(a[i+4]) * float64(b[i+4])
		s5 += float64(a[i+5]) * float64(b[i+5])
		s6 += float64(a[i+6]) * float64(b[i+6])
		s7 += float64(a[i+7]) * float64(b[i+7])
	}
	for ; i < n; i++ {
		s0 += float64(a[i]) * float64(b[i])
	}

	return (s0 + s1) + (s2 + s3) + (s4 + s5) + (s6 + s7)
}

// cosinePartsGeneric returns dot(a,b), dot(a,a) and dot(b,b) in one pass.
func cosinePartsGeneric(a, b []float32) (dot, normA, normB float64) {
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot, normA, normB
}

func cosinePartsUnrolled(a, b []float32) (dot, normA, normB float64) {
	n := len(a)
	b = b[:n]

	var d0, d1, d2, d3 float64
	var a0, a1, a2, a3 float64
	var b0, b1, b2, b3 float64

	i := 0
	for ; i+4 <= n; i += 4 {
		x0, x1, x2, x3 := float64(a[i]), float64(a[i+1]), float64(a[i+2]), float64(a[i+3])
		y0, y1, y2, y3 := float64(b[i]), float64(b[i+1]), float64(b[i+2]), float64(b[i+3])

		d0 += x0 * y0
		d1 += x1 * y1
		d2 += x2 * y2
		d3 += x3 * y3

		a0 += x0 * x0
		a1 += x1 * x1
		a2 += x2 * x2
		a3 += x3 * x3

		b0 += y0 * y0
		b1 += y1 * y1
		b2 += y2 * y2
		b3 += y3 * y3
	}
	for ; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		d0 += x * y
		a0 += x * x
		b0 += y * y
	}

	return (d0 + d1) + (d2 + d3), (a0 + a1) + (a2 + a3), (b0 + b1) + (b2 + b3)
}
