package record

import (
	"fmt"
	"reflect"
	"slices"
)

// Embedding wraps a vector produced by an embedding model.
type Embedding struct {
	Vector []float32
}

// NewEmbedding returns an Embedding holding a copy of v.
func NewEmbedding(v []float32) Embedding {
	return Embedding{Vector: slices.Clone(v)}
}

// Dimension returns the length of the wrapped vector.
func (e Embedding) Dimension() int { return len(e.Vector) }

var (
	float32SliceType = reflect.TypeFor[[]float32]()
	embeddingType    = reflect.TypeFor[Embedding]()
	embeddingPtrType = reflect.TypeFor[*Embedding]()
)

type vectorKind uint8

const (
	vectorUnsupported vectorKind = iota
	vectorSlice
	vectorArray
	vectorEmbedding
	vectorEmbeddingPtr
)

func classifyVector(t reflect.Type) vectorKind {
	switch {
	case t == embeddingType:
		return vectorEmbedding
	case t == embeddingPtrType:
		return vectorEmbeddingPtr
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Float32:
		return vectorSlice
	case t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Float32:
		return vectorArray
	default:
		return vectorUnsupported
	}
}

// vectorFromValue normalizes v, whose type was classified as kind.
func vectorFromValue(v reflect.Value, kind vectorKind) []float32 {
	switch kind {
	case vectorSlice:
		if v.Type() == float32SliceType {
			return v.Interface().([]float32)
		}
		return v.Convert(float32SliceType).Interface().([]float32)
	case vectorArray:
		out := make([]float32, v.Len())
		reflect.Copy(reflect.ValueOf(out), v)
		return out
	case vectorEmbedding:
		return v.Interface().(Embedding).Vector
	case vectorEmbeddingPtr:
		if v.IsNil() {
			return nil
		}
		return v.Interface().(*Embedding).Vector
	default:
		return nil
	}
}

// ToVector normalizes a query vector given as []float32, [N]float32, Embedding
// or *Embedding. Other representations yield ErrUnsupportedVector.
func ToVector(v any) ([]float32, error) {
	switch x := v.(type) {
	case []float32:
		return x, nil
	case Embedding:
		return x.Vector, nil
	case *Embedding:
		if x == nil {
			return nil, fmt.Errorf("%w: nil *Embedding", ErrUnsupportedVector)
		}
		return x.Vector, nil
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedVector)
	}

	rv := reflect.ValueOf(v)
	kind := classifyVector(rv.Type())
	if kind == vectorUnsupported {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedVector, v)
	}
	return vectorFromValue(rv, kind), nil
}
