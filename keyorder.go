package vecmem

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

// defaultKeyOrder returns the total order used for keys of type K.
//
// Integer, unsigned, float, string and bool kinds compare by value. Byte arrays
// (uuid.UUID and similar) compare bytewise. Any other key type falls back to
// comparing its Go-syntax representation.
func defaultKeyOrder[K comparable]() func(a, b K) int {
	typ := reflect.TypeFor[K]()

	switch typ.Kind() {
	case reflect.String:
		return func(a, b K) int {
			return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b K) int {
			return cmp.Compare(reflect.ValueOf(a).Int(), reflect.ValueOf(b).Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b K) int {
			return cmp.Compare(reflect.ValueOf(a).Uint(), reflect.ValueOf(b).Uint())
		}
	case reflect.Float32, reflect.Float64:
		return func(a, b K) int {
			return cmp.Compare(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
		}
	case reflect.Bool:
		return func(a, b K) int {
			x, y := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			return func(a, b K) int {
				return bytes.Compare(arrayBytes(a), arrayBytes(b))
			}
		}
	}

	return func(a, b K) int {
		if a == b {
			return 0
		}
		return strings.Compare(fmt.Sprintf("%#v", a), fmt.Sprintf("%#v", b))
	}
}

func arrayBytes(k any) []byte {
	v := reflect.ValueOf(k)
	out := make([]byte, v.Len())
	for i := range out {
		out[i] = byte(v.Index(i).Uint())
	}
	return out
}

// resolveKeyOrder picks the user order from opts when it matches K.
func resolveKeyOrder[K comparable](custom any) (func(a, b K) int, error) {
	if custom == nil {
		return defaultKeyOrder[K](), nil
	}
	fn, ok := custom.(func(a, b K) int)
	if !ok || fn == nil {
		return nil, invalidArgument("key order %T does not match key type %s", custom, reflect.TypeFor[K]())
	}
	return fn, nil
}
