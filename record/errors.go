package record

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnsupportedVector is returned when a value cannot be normalized to a vector.
var ErrUnsupportedVector = errors.New("unsupported vector representation")

// ShapeError reports a record type that does not designate exactly one key or
// exactly one vector.
type ShapeError struct {
	Type   reflect.Type
	Role   string // "key" or "vector"
	Count  int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("record type %s: %s field: %s", e.Type, e.Role, e.Reason)
	}
	return fmt.Sprintf("record type %s: expected exactly one %s field, found %d", e.Type, e.Role, e.Count)
}

// KeyTypeError reports a key field whose type is not assignable to the
// collection key type.
type KeyTypeError struct {
	Type reflect.Type
	Key  reflect.Type
	Want reflect.Type
}

func (e *KeyTypeError) Error() string {
	return fmt.Sprintf("record type %s: key of type %s is not assignable to %s", e.Type, e.Key, e.Want)
}
