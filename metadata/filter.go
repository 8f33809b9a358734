package metadata

import (
	"cmp"
	"math"
	"strings"
)

// Operator names a comparison. The string forms double as the TOML and log
// spelling of a filter.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpIn           Operator = "in" // Value is an array of candidates
	OpContains     Operator = "contains"
)

// Filter represents a single field condition.
type Filter struct {
	Key      string
	Operator Operator
	Value    Value
}

// Eq matches records whose field equals value.
func Eq(key string, value any) Filter { return newFilter(key, OpEqual, value) }

// Ne matches records whose field is present and differs from value.
func Ne(key string, value any) Filter { return newFilter(key, OpNotEqual, value) }

// Gt matches records whose numeric field is greater than value.
func Gt(key string, value any) Filter { return newFilter(key, OpGreaterThan, value) }

// Gte matches records whose numeric field is greater than or equal to value.
func Gte(key string, value any) Filter { return newFilter(key, OpGreaterEqual, value) }

// Lt matches records whose numeric field is less than value.
func Lt(key string, value any) Filter { return newFilter(key, OpLessThan, value) }

// Lte matches records whose numeric field is less than or equal to value.
func Lte(key string, value any) Filter { return newFilter(key, OpLessEqual, value) }

// In matches records whose field equals any of values.
func In(key string, values ...any) Filter { return newFilter(key, OpIn, values) }

// Contains matches records whose string field contains substr.
func Contains(key, substr string) Filter { return newFilter(key, OpContains, substr) }

// newFilter converts value with FromAny. Unconvertible values yield a filter
// that matches nothing.
func newFilter(key string, op Operator, value any) Filter {
	v, err := FromAny(value)
	if err != nil {
		v = Value{Kind: KindInvalid}
	}
	return Filter{Key: key, Operator: op, Value: v}
}

// Matches checks if the field provided by src matches this filter.
// A missing field never matches.
func (f *Filter) Matches(src Source) bool {
	if f.Value.Kind == KindInvalid {
		return false
	}

	value, exists := src.Lookup(f.Key)
	if !exists {
		return false
	}

	switch f.Operator {
	case OpEqual:
		return equal(value, f.Value)
	case OpNotEqual:
		return !equal(value, f.Value)
	case OpIn:
		return compareIn(value, f.Value)
	case OpContains:
		return compareContains(value, f.Value)
	}

	c, ok := compareNumbers(value, f.Value)
	if !ok {
		return false
	}
	switch f.Operator {
	case OpGreaterThan:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessEqual:
		return c <= 0
	default:
		return false
	}
}

// FilterSet represents a set of filters that must all match (AND logic).
type FilterSet struct {
	Filters []Filter
}

// NewFilterSet creates a new filter set.
func NewFilterSet(filters ...Filter) *FilterSet {
	return &FilterSet{Filters: filters}
}

// Keys returns the distinct field names referenced by the set.
func (fs *FilterSet) Keys() []string {
	if fs == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(fs.Filters))
	keys := make([]string, 0, len(fs.Filters))
	for _, f := range fs.Filters {
		if _, ok := seen[f.Key]; ok {
			continue
		}
		seen[f.Key] = struct{}{}
		keys = append(keys, f.Key)
	}
	return keys
}

// Matches checks if src matches all filters in the set.
// A nil or empty set matches everything.
func (fs *FilterSet) Matches(src Source) bool {
	if fs == nil {
		return true
	}
	for i := range fs.Filters {
		if !fs.Filters[i].Matches(src) {
			return false
		}
	}
	return true
}

func equal(a, b Value) bool {
	if a.Kind == KindNull && b.Kind == KindNull {
		return true
	}
	if a.Kind == KindNull || b.Kind == KindNull {
		return false
	}

	if isNumber(a) && isNumber(b) {
		// Same rule as the index key: NaN equals NaN.
		return a.Key() == b.Key()
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindString:
		return a.s == b.s
	case KindBool:
		return a.B == b.B
	case KindArray:
		if len(a.A) != len(b.A) {
			return false
		}
		for i := range a.A {
			if !equal(a.A[i], b.A[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareNumbers orders two numeric values. Ints compare exactly; mixed
// kinds compare as float64. NaN is unordered.
func compareNumbers(a, b Value) (int, bool) {
	if !isNumber(a) || !isNumber(b) {
		return 0, false
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		return cmp.Compare(a.I64, b.I64), true
	}
	x, y := asFloat64(a), asFloat64(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	return cmp.Compare(x, y), true
}

func compareIn(a, b Value) bool {
	if b.Kind != KindArray {
		return false
	}
	for _, item := range b.A {
		if equal(a, item) {
			return true
		}
	}
	return false
}

func compareContains(a, b Value) bool {
	if a.Kind != KindString || b.Kind != KindString {
		return false
	}
	return strings.Contains(a.s.Value(), b.s.Value())
}

func isNumber(v Value) bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func asFloat64(v Value) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I64)
	case KindFloat:
		return v.F64
	default:
		return 0
	}
}
