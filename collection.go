package vecmem

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecmem/distance"
	"github.com/hupe1980/vecmem/metadata"
	"github.com/hupe1980/vecmem/record"
)

// cancelCheckInterval is how many elements scans and batches process between
// context checks.
const cancelCheckInterval = 256

// row is one stored record.
type row[K comparable, R any] struct {
	key  K
	rec  R
	vec  []float32
	norm float64

	// indexed holds the values added to the payload index for this row.
	indexed map[string]metadata.Value
}

// Collection is a named, typed set of records searchable by cosine similarity.
//
// Records are identified by key; upserting an existing key replaces the record.
// A Collection is safe for concurrent use. Searches observe a consistent view
// of the records at the time they acquire the read lock.
type Collection[K comparable, R any] struct {
	name     string
	desc     *record.Keyed[K, R]
	keyOrder func(a, b K) int
	logger   *Logger
	metrics  MetricsCollector

	strict bool
	pinned bool

	mu       sync.RWMutex
	deleted  bool
	dim      int
	dimFixed bool
	rows     []row[K, R]
	free     []uint32
	slots    map[K]uint32
	live     *roaring.Bitmap
	index    *metadata.Index // nil without indexed fields
}

func newCollection[K comparable, R any](name string, desc *record.Keyed[K, R], logger *Logger, mc MetricsCollector, o collectionOptions) (*Collection[K, R], error) {
	keyOrder, err := resolveKeyOrder[K](o.keyOrder)
	if err != nil {
		return nil, err
	}
	if o.dimension < 0 {
		return nil, invalidArgument("dimension must be >= 0, got %d", o.dimension)
	}

	c := &Collection[K, R]{
		name:     name,
		desc:     desc,
		keyOrder: keyOrder,
		logger:   logger.WithCollection(name),
		metrics:  mc,
		strict:   o.strictDimensions,
		pinned:   o.dimension > 0,
		dim:      o.dimension,
		dimFixed: o.dimension > 0,
		slots:    make(map[K]uint32),
		live:     roaring.New(),
	}

	fields := make([]string, 0, len(o.indexedFields)+len(o.defaultIndexedFields))
	for _, f := range o.indexedFields {
		if _, ok := desc.Field(f); !ok {
			return nil, invalidArgument("indexed field %q is not a payload field of %s", f, desc.Type())
		}
		fields = append(fields, f)
	}
	for _, f := range o.defaultIndexedFields {
		if _, ok := desc.Field(f); ok {
			fields = append(fields, f)
		}
	}
	if len(fields) > 0 {
		c.index = metadata.NewIndex(fields...)
	}

	return c, nil
}

func (c *Collection[K, R]) keyType() reflect.Type  { return reflect.TypeFor[K]() }
func (c *Collection[K, R]) dataType() reflect.Type { return reflect.TypeFor[R]() }

func (c *Collection[K, R]) markDeleted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted = true
	c.rows = nil
	c.free = nil
	c.slots = nil
	c.live = roaring.New()
	if c.index != nil {
		c.index.Clear()
	}
}

// Name returns the collection name.
func (c *Collection[K, R]) Name() string { return c.name }

// Exists reports whether the collection is still registered in its Store.
func (c *Collection[K, R]) Exists() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.deleted
}

// Len returns the number of stored records.
func (c *Collection[K, R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots)
}

// Dimension returns the enforced vector dimension, or 0 when dimensions are
// validated lazily or no vector has been stored yet.
func (c *Collection[K, R]) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.strict {
		return 0
	}
	return c.dim
}

func (c *Collection[K, R]) errDeleted() error {
	return fmt.Errorf("%w: collection %q was deleted", ErrNotFound, c.name)
}

// Get returns the record stored under key.
// It reports false for a missing key and on a deleted collection.
func (c *Collection[K, R]) Get(key K) (R, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero R
	if c.deleted {
		return zero, false
	}
	slot, ok := c.slots[key]
	if !ok {
		return zero, false
	}
	return c.rows[slot].rec, true
}

// prepared is a validated record ready to be written.
type prepared[K comparable, R any] struct {
	key     K
	rec     R
	vec     []float32
	indexed map[string]metadata.Value
}

func (c *Collection[K, R]) prepare(rec R) (prepared[K, R], error) {
	var p prepared[K, R]

	if c.desc.IsNil(rec) {
		return p, invalidArgument("record must not be nil")
	}
	key, ok := c.desc.Key(rec)
	if !ok {
		return p, invalidArgument("record key is unreachable")
	}
	vec, ok := c.desc.Vector(rec)
	if !ok {
		return p, invalidArgument("record vector is unreachable")
	}

	p.key = key
	p.rec = rec
	p.vec = slices.Clone(vec)

	if c.index != nil {
		p.indexed = make(map[string]metadata.Value)
		for _, f := range c.index.Fields() {
			if v, ok := lookupField(c.desc, rec, f); ok {
				p.indexed[f] = v
			}
		}
	}

	return p, nil
}

// checkDimension validates vec against the collection dimension in strict mode.
// dim is the dimension in effect for this write. Called with c.mu held.
func (c *Collection[K, R]) checkDimension(dim int, fixed bool, vec []float32) (int, bool, error) {
	if !c.strict {
		return dim, fixed, nil
	}
	if !fixed {
		return len(vec), true, nil
	}
	if len(vec) != dim {
		return dim, fixed, &ErrDimensionMismatch{Expected: dim, Actual: len(vec)}
	}
	return dim, fixed, nil
}

// write stores p. Called with c.mu held.
func (c *Collection[K, R]) write(p prepared[K, R]) {
	r := row[K, R]{
		key:     p.key,
		rec:     p.rec,
		vec:     p.vec,
		norm:    distance.Norm(p.vec),
		indexed: p.indexed,
	}

	if slot, ok := c.slots[p.key]; ok {
		c.unindex(slot)
		c.rows[slot] = r
		c.reindex(slot)
		return
	}

	var slot uint32
	if n := len(c.free); n > 0 {
		slot = c.free[n-1]
		c.free = c.free[:n-1]
		c.rows[slot] = r
	} else {
		slot = uint32(len(c.rows))
		c.rows = append(c.rows, r)
	}
	c.slots[p.key] = slot
	c.live.Add(slot)
	c.reindex(slot)
}

func (c *Collection[K, R]) reindex(slot uint32) {
	if c.index == nil {
		return
	}
	for f, v := range c.rows[slot].indexed {
		c.index.Add(slot, f, v)
	}
}

func (c *Collection[K, R]) unindex(slot uint32) {
	if c.index == nil {
		return
	}
	for f, v := range c.rows[slot].indexed {
		c.index.Remove(slot, f, v)
	}
}

// remove deletes the record under key. Called with c.mu held.
func (c *Collection[K, R]) remove(key K) bool {
	slot, ok := c.slots[key]
	if !ok {
		return false
	}
	c.unindex(slot)
	c.rows[slot] = row[K, R]{}
	c.free = append(c.free, slot)
	c.live.Remove(slot)
	delete(c.slots, key)
	return true
}

// Upsert stores rec under its key, replacing any existing record, and returns
// the key.
func (c *Collection[K, R]) Upsert(ctx context.Context, rec R) (key K, err error) {
	start := time.Now()
	dim := 0
	defer func() {
		c.metrics.RecordUpsert(time.Since(start), err)
		c.logger.LogUpsert(ctx, key, dim, err)
	}()

	if err := ctx.Err(); err != nil {
		return key, err
	}

	p, err := c.prepare(rec)
	if err != nil {
		return key, err
	}
	dim = len(p.vec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleted {
		return key, c.errDeleted()
	}

	d, fixed, err := c.checkDimension(c.dim, c.dimFixed, p.vec)
	if err != nil {
		return key, err
	}
	c.dim, c.dimFixed = d, fixed

	c.write(p)
	return p.key, nil
}

// UpsertMany stores recs in order and returns their keys.
//
// Every record is validated before the first write, so argument errors leave
// the collection unchanged. Cancellation is observed between writes; a
// cancelled batch keeps the records written so far and returns their keys
// together with the context error.
func (c *Collection[K, R]) UpsertMany(ctx context.Context, recs []R) (keys []K, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordBatchUpsert(len(recs), len(recs)-len(keys), time.Since(start))
		c.logger.LogBatchUpsert(ctx, len(recs), len(keys), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]prepared[K, R], len(recs))
	for i, rec := range recs {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p, err := c.prepare(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		batch[i] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleted {
		return nil, c.errDeleted()
	}

	dim, fixed := c.dim, c.dimFixed
	for i := range batch {
		if dim, fixed, err = c.checkDimension(dim, fixed, batch[i].vec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	c.dim, c.dimFixed = dim, fixed

	keys = make([]K, 0, len(batch))
	for i := range batch {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return keys, err
			}
		}
		c.write(batch[i])
		keys = append(keys, batch[i].key)
	}

	return keys, nil
}

// Delete removes the record stored under key. A missing key is not an error.
func (c *Collection[K, R]) Delete(ctx context.Context, key K) error {
	return c.DeleteMany(ctx, []K{key})
}

// DeleteMany removes the records stored under keys. Missing keys are skipped.
func (c *Collection[K, R]) DeleteMany(ctx context.Context, keys []K) (err error) {
	start := time.Now()
	removed := 0
	defer func() {
		c.metrics.RecordDelete(removed, time.Since(start), err)
		c.logger.LogDelete(ctx, removed, err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleted {
		return c.errDeleted()
	}

	for i, key := range keys {
		if i > 0 && i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if c.remove(key) {
			removed++
		}
	}

	return nil
}

// DeleteAll removes every record. The collection stays registered.
func (c *Collection[K, R]) DeleteAll(ctx context.Context) (err error) {
	start := time.Now()
	removed := 0
	defer func() {
		c.metrics.RecordDelete(removed, time.Since(start), err)
		c.logger.LogDelete(ctx, removed, err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleted {
		return c.errDeleted()
	}

	removed = len(c.slots)
	c.rows = nil
	c.free = nil
	c.slots = make(map[K]uint32)
	c.live.Clear()
	if c.index != nil {
		c.index.Clear()
	}
	if !c.pinned {
		// A learned dimension is forgotten with the vectors that set it.
		c.dim, c.dimFixed = 0, false
	}

	return nil
}

type getOptions struct {
	predicate any // func(R) bool
	filters   *metadata.FilterSet
}

// GetOption configures GetMany.
type GetOption func(*getOptions)

// WithPredicate keeps only records for which fn returns true.
func WithPredicate[R any](fn func(R) bool) GetOption {
	return func(o *getOptions) {
		o.predicate = fn
	}
}

// WithFilters keeps only records whose payload fields match every filter.
func WithFilters(filters ...metadata.Filter) GetOption {
	return func(o *getOptions) {
		if o.filters == nil {
			o.filters = metadata.NewFilterSet()
		}
		o.filters.Filters = append(o.filters.Filters, filters...)
	}
}

// GetMany returns up to top records after skipping skip, ordered by key
// ascending. The predicate runs outside the collection lock; panics it raises
// propagate to the caller.
func (c *Collection[K, R]) GetMany(ctx context.Context, top, skip int, optFns ...GetOption) ([]R, error) {
	if top < 1 {
		return nil, invalidArgument("top must be >= 1, got %d", top)
	}
	if skip < 0 {
		return nil, invalidArgument("skip must be >= 0, got %d", skip)
	}

	var o getOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	var predicate func(R) bool
	if o.predicate != nil {
		fn, ok := o.predicate.(func(R) bool)
		if !ok {
			return nil, invalidArgument("predicate %T does not accept %s", o.predicate, reflect.TypeFor[R]())
		}
		predicate = fn
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := c.snapshot(ctx, o.filters)
	if err != nil {
		return nil, err
	}

	matched := entries[:0]
	for i := range entries {
		if predicate == nil || predicate(entries[i].rec) {
			matched = append(matched, entries[i])
		}
	}

	slices.SortFunc(matched, func(a, b entry[K, R]) int {
		return c.keyOrder(a.key, b.key)
	})

	if skip >= len(matched) {
		return []R{}, nil
	}
	matched = matched[skip:]
	if top < len(matched) {
		matched = matched[:top]
	}

	out := make([]R, len(matched))
	for i := range matched {
		out[i] = matched[i].rec
	}
	return out, nil
}

// entry is a row captured under the read lock. Stored vectors are replaced,
// never written in place, so vec stays valid after the lock is released.
type entry[K comparable, R any] struct {
	key  K
	rec  R
	vec  []float32
	norm float64
}

// snapshot returns the live rows matching fs. Callers run user callbacks
// (filters, predicates, key orders) on the result after the lock is released,
// so those callbacks may call back into the collection.
func (c *Collection[K, R]) snapshot(ctx context.Context, fs *metadata.FilterSet) ([]entry[K, R], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.deleted {
		return nil, c.errDeleted()
	}

	var out []entry[K, R]
	if fs == nil {
		out = make([]entry[K, R], 0, len(c.slots))
	}
	err := c.scan(ctx, fs, func(slot uint32) error {
		r := &c.rows[slot]
		out = append(out, entry[K, R]{key: r.key, rec: r.rec, vec: r.vec, norm: r.norm})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan calls visit for every live slot matching fs. Indexed Eq and In filters
// narrow the candidates through the bitmap index; the rest are evaluated per
// record. Called with c.mu held.
func (c *Collection[K, R]) scan(ctx context.Context, fs *metadata.FilterSet, visit func(slot uint32) error) error {
	candidates := c.live
	var residual []metadata.Filter
	if fs != nil {
		residual = fs.Filters
		if c.index != nil {
			if bm, rest, ok := c.index.Compile(fs); ok {
				bm.And(c.live)
				candidates = bm
				residual = rest
			}
		}
	}

	it := candidates.Iterator()
	for n := 0; it.HasNext(); n++ {
		if n > 0 && n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		slot := it.Next()
		if len(residual) > 0 {
			src := recordSource[K, R]{desc: c.desc, rec: c.rows[slot].rec}
			if !matchAll(residual, src) {
				continue
			}
		}
		if err := visit(slot); err != nil {
			return err
		}
	}

	return nil
}

func matchAll(filters []metadata.Filter, src metadata.Source) bool {
	for i := range filters {
		if !filters[i].Matches(src) {
			return false
		}
	}
	return true
}

// recordSource exposes the payload fields of a record to metadata filters.
type recordSource[K comparable, R any] struct {
	desc *record.Keyed[K, R]
	rec  R
}

func (s recordSource[K, R]) Lookup(field string) (metadata.Value, bool) {
	return lookupField(s.desc, s.rec, field)
}

func lookupField[K comparable, R any](desc *record.Keyed[K, R], rec R, field string) (metadata.Value, bool) {
	acc, ok := desc.Field(field)
	if !ok {
		return metadata.Value{}, false
	}
	raw, ok := acc(rec)
	if !ok {
		return metadata.Value{}, false
	}
	v, err := metadata.FromAny(raw)
	if err != nil {
		return metadata.Value{}, false
	}
	return v, true
}
