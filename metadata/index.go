package metadata

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index is an inverted index over a fixed set of fields:
// field -> value key -> bitmap of row ids.
//
// Index is not safe for concurrent use; callers guard it together with the rows
// it describes.
type Index struct {
	fields   map[string]struct{}
	inverted map[string]map[string]*roaring.Bitmap
}

// NewIndex creates an index over the given fields.
func NewIndex(fields ...string) *Index {
	idx := &Index{
		fields:   make(map[string]struct{}, len(fields)),
		inverted: make(map[string]map[string]*roaring.Bitmap, len(fields)),
	}
	for _, f := range fields {
		idx.fields[f] = struct{}{}
	}
	return idx
}

// Fields returns the indexed field names in sorted order.
func (idx *Index) Fields() []string {
	out := make([]string, 0, len(idx.fields))
	for f := range idx.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Indexed reports whether field is indexed.
func (idx *Index) Indexed(field string) bool {
	_, ok := idx.fields[field]
	return ok
}

// Add records that row has value for field. Unindexed fields are ignored.
func (idx *Index) Add(row uint32, field string, value Value) {
	if !idx.Indexed(field) {
		return
	}

	valueMap, ok := idx.inverted[field]
	if !ok {
		valueMap = make(map[string]*roaring.Bitmap)
		idx.inverted[field] = valueMap
	}

	key := value.Key()
	bitmap, ok := valueMap[key]
	if !ok {
		bitmap = roaring.New()
		valueMap[key] = bitmap
	}
	bitmap.Add(row)
}

// Remove drops row from the posting list of field=value.
func (idx *Index) Remove(row uint32, field string, value Value) {
	valueMap, ok := idx.inverted[field]
	if !ok {
		return
	}

	key := value.Key()
	bitmap, ok := valueMap[key]
	if !ok {
		return
	}

	bitmap.Remove(row)
	if bitmap.IsEmpty() {
		delete(valueMap, key)
	}
}

// Clear removes all postings but keeps the indexed field set.
func (idx *Index) Clear() {
	idx.inverted = make(map[string]map[string]*roaring.Bitmap, len(idx.fields))
}

// Compile resolves the indexable filters of fs into a bitmap of candidate rows.
//
// Equality and In filters on indexed fields are answered from posting lists and
// intersected. All other filters are returned as residual and must be
// evaluated per row. ok is false when no filter could be compiled, in which
// case every row is a candidate.
func (idx *Index) Compile(fs *FilterSet) (candidates *roaring.Bitmap, residual []Filter, ok bool) {
	if fs == nil {
		return nil, nil, false
	}

	for _, filter := range fs.Filters {
		var bm *roaring.Bitmap
		compiled := false

		if idx.Indexed(filter.Key) && filter.Value.Kind != KindInvalid {
			switch filter.Operator {
			case OpEqual:
				bm = idx.lookup(filter.Key, filter.Value)
				compiled = true
			case OpIn:
				if arr, isArr := filter.Value.AsArray(); isArr {
					bm = roaring.New()
					for _, v := range arr {
						if posting := idx.lookup(filter.Key, v); posting != nil {
							bm.Or(posting)
						}
					}
					compiled = true
				}
			}
		}

		if !compiled {
			residual = append(residual, filter)
			continue
		}

		if bm == nil {
			bm = roaring.New()
		}
		if candidates == nil {
			candidates = bm.Clone()
		} else {
			candidates.And(bm)
		}
	}

	if candidates == nil {
		return nil, residual, false
	}
	return candidates, residual, true
}

// lookup returns the posting list for field=value, or nil.
func (idx *Index) lookup(field string, value Value) *roaring.Bitmap {
	valueMap, ok := idx.inverted[field]
	if !ok {
		return nil
	}
	return valueMap[value.Key()]
}
