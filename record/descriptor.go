package record

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Keyer is implemented by record types that expose their key directly.
type Keyer[K any] interface {
	RecordKey() K
}

// Vectorer is implemented by record types that expose their vector directly.
type Vectorer interface {
	RecordVector() []float32
}

// Accessor reads a payload field from a record.
// ok is false when the field cannot be reached (nil record or nil embedded pointer).
type Accessor[R any] func(r R) (value any, ok bool)

// Descriptor holds the resolved accessors for one record type.
// It is immutable once built and safe for concurrent use.
type Descriptor[R any] struct {
	typ     reflect.Type
	ptr     bool // R is a pointer to a struct
	nilable bool // values of R can be nil
	keyType reflect.Type

	keyMethod bool
	keyIndex  []int

	vecMethod bool
	vecIndex  []int
	vecKind   vectorKind

	fields map[string]Accessor[R]
	names  []string
}

// Type returns the record type.
func (d *Descriptor[R]) Type() reflect.Type { return d.typ }

// KeyType returns the declared type of the record key.
func (d *Descriptor[R]) KeyType() reflect.Type { return d.keyType }

// IsNil reports whether r is nil. Interface records also count as nil when
// they hold a nil pointer, map or slice.
func (d *Descriptor[R]) IsNil(r R) bool {
	if !d.nilable {
		return false
	}
	v := reflect.ValueOf(any(r))
	if !v.IsValid() {
		return true
	}
	if isNilable(v.Kind()) {
		return v.IsNil()
	}
	return false
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// Vector returns the vector held by r.
func (d *Descriptor[R]) Vector(r R) ([]float32, bool) {
	if d.IsNil(r) {
		return nil, false
	}
	if d.vecMethod {
		vr, ok := any(r).(Vectorer)
		if !ok {
			return nil, false
		}
		return vr.RecordVector(), true
	}
	v, ok := d.field(r, d.vecIndex)
	if !ok {
		return nil, false
	}
	return vectorFromValue(v, d.vecKind), true
}

// Field returns the accessor for a payload field, looked up by Go field name,
// json tag name or declared alias.
func (d *Descriptor[R]) Field(name string) (Accessor[R], bool) {
	a, ok := d.fields[name]
	return a, ok
}

// FieldNames returns the Go names of all payload fields in sorted order.
func (d *Descriptor[R]) FieldNames() []string {
	return slices.Clone(d.names)
}

func (d *Descriptor[R]) field(r R, index []int) (reflect.Value, bool) {
	v := reflect.ValueOf(r)
	if d.ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	f, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return f, true
}

// Keyed is a Descriptor bound to a concrete key type.
type Keyed[K comparable, R any] struct {
	*Descriptor[R]
	key func(R) (K, bool)
}

// Key returns the key of r. ok is false for nil records.
func (k *Keyed[K, R]) Key(r R) (K, bool) {
	return k.key(r)
}

var (
	cache  sync.Map // reflect.Type -> *resolution
	group  singleflight.Group
	builds atomic.Int64
)

type resolution struct {
	typ  reflect.Type
	desc any
	err  error
}

// Resolve returns the cached Descriptor for R, building it on first use.
// A type that fails resolution keeps failing with the same error.
func Resolve[R any]() (*Descriptor[R], error) {
	typ := reflect.TypeFor[R]()
	if v, ok := cache.Load(typ); ok {
		return unwrap[R](v.(*resolution))
	}

	v, _, _ := group.Do(typeKey(typ), func() (any, error) {
		if v, ok := cache.Load(typ); ok {
			return v, nil
		}
		return store(typ, build[R]), nil
	})

	res := v.(*resolution)
	if res.typ != typ {
		// Two distinct types shared a singleflight key.
		res = store(typ, build[R])
	}
	return unwrap[R](res)
}

// ResolveKeyed resolves R and binds its key to K.
// It fails with a KeyTypeError when the record key is not assignable to K.
func ResolveKeyed[K comparable, R any]() (*Keyed[K, R], error) {
	d, err := Resolve[R]()
	if err != nil {
		return nil, err
	}

	want := reflect.TypeFor[K]()
	if !d.keyType.AssignableTo(want) {
		return nil, &KeyTypeError{Type: d.typ, Key: d.keyType, Want: want}
	}

	direct := d.keyType == want
	convert := func(v reflect.Value) K {
		if direct {
			return v.Interface().(K)
		}
		out := reflect.New(want).Elem()
		out.Set(v)
		return out.Interface().(K)
	}

	k := &Keyed[K, R]{Descriptor: d}
	if d.keyMethod {
		k.key = func(r R) (K, bool) {
			var zero K
			if d.IsNil(r) {
				return zero, false
			}
			if kr, ok := any(r).(Keyer[K]); ok {
				return kr.RecordKey(), true
			}
			m := reflect.ValueOf(any(r)).MethodByName("RecordKey")
			if !m.IsValid() {
				return zero, false
			}
			return convert(m.Call(nil)[0]), true
		}
		return k, nil
	}

	k.key = func(r R) (K, bool) {
		v, ok := d.field(r, d.keyIndex)
		if !ok {
			var zero K
			return zero, false
		}
		return convert(v), true
	}
	return k, nil
}

func store[R any](typ reflect.Type, buildFn func(reflect.Type) (*Descriptor[R], error)) *resolution {
	d, err := buildFn(typ)
	res := &resolution{typ: typ, err: err}
	if err == nil {
		res.desc = d
	}
	actual, _ := cache.LoadOrStore(typ, res)
	return actual.(*resolution)
}

func unwrap[R any](res *resolution) (*Descriptor[R], error) {
	if res.err != nil {
		return nil, res.err
	}
	return res.desc.(*Descriptor[R]), nil
}

func typeKey(typ reflect.Type) string {
	return typ.PkgPath() + "|" + typ.String()
}

func build[R any](typ reflect.Type) (*Descriptor[R], error) {
	builds.Add(1)

	d := &Descriptor[R]{
		typ:     typ,
		nilable: isNilable(typ.Kind()),
		fields:  make(map[string]Accessor[R]),
	}

	var keyCount, vecCount int
	var vecField *reflect.StructField

	if out, ok := methodResult(typ, "RecordKey"); ok {
		keyCount++
		d.keyMethod = true
		d.keyType = out
	}
	if out, ok := methodResult(typ, "RecordVector"); ok && out == float32SliceType {
		vecCount++
		d.vecMethod = true
	}

	st := typ
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
		d.ptr = st.Kind() == reflect.Struct
	}

	if st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			if !f.IsExported() || isEmbeddedStruct(f) {
				continue
			}

			tag := parseTag(f.Tag.Get("vecmem"))
			switch tag.role {
			case "-":
				continue
			case "key":
				keyCount++
				d.keyIndex = f.Index
				d.keyType = f.Type
			case "vector":
				vecCount++
				d.vecIndex = f.Index
				d.vecKind = classifyVector(f.Type)
				vf := f
				vecField = &vf
				continue
			}

			d.addField(f, tag.alias)
		}
	}

	if keyCount != 1 {
		return nil, &ShapeError{Type: typ, Role: "key", Count: keyCount}
	}
	if vecCount != 1 {
		return nil, &ShapeError{Type: typ, Role: "vector", Count: vecCount}
	}
	if vecField != nil && d.vecKind == vectorUnsupported {
		return nil, &ShapeError{Type: typ, Role: "vector", Count: 1, Reason: fmt.Sprintf("unsupported type %s", vecField.Type)}
	}
	if !d.keyType.Comparable() {
		return nil, &ShapeError{Type: typ, Role: "key", Count: 1, Reason: fmt.Sprintf("type %s is not comparable", d.keyType)}
	}

	slices.Sort(d.names)

	return d, nil
}

func (d *Descriptor[R]) addField(f reflect.StructField, alias string) {
	index := f.Index
	acc := func(r R) (any, bool) {
		v, ok := d.field(r, index)
		if !ok {
			return nil, false
		}
		return v.Interface(), true
	}

	d.names = append(d.names, f.Name)
	d.fields[f.Name] = acc

	for _, name := range []string{jsonName(f), alias} {
		if name == "" {
			continue
		}
		if _, taken := d.fields[name]; !taken {
			d.fields[name] = acc
		}
	}
}

// methodResult returns the single result type of a niladic method.
func methodResult(typ reflect.Type, name string) (reflect.Type, bool) {
	m, ok := typ.MethodByName(name)
	if !ok {
		return nil, false
	}
	in := m.Type.NumIn()
	if typ.Kind() != reflect.Interface {
		in-- // receiver
	}
	if in != 0 || m.Type.NumOut() != 1 {
		return nil, false
	}
	return m.Type.Out(0), true
}

func isEmbeddedStruct(f reflect.StructField) bool {
	if !f.Anonymous {
		return false
	}
	t := f.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

type tagInfo struct {
	role  string
	alias string
}

func parseTag(tag string) tagInfo {
	var info tagInfo
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "key", part == "vector", part == "-":
			info.role = part
		case strings.HasPrefix(part, "name="):
			info.alias = strings.TrimPrefix(part, "name=")
		}
	}
	return info
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
