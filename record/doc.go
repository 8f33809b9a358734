// Package record resolves how vecmem reads keys, vectors and payload fields out
// of caller-defined record types.
//
// A record type designates exactly one key and exactly one vector, either by
// implementing the accessor interfaces:
//
//	type Doc struct {
//	    ID  string
//	    Emb []float32
//	}
//
//	func (d Doc) RecordKey() string        { return d.ID }
//	func (d Doc) RecordVector() []float32  { return d.Emb }
//
// or by struct tags:
//
//	type Doc struct {
//	    ID       string           `vecmem:"key"`
//	    Emb      record.Embedding `vecmem:"vector"`
//	    Title    string           `json:"title" vecmem:"name=doc_title"`
//	    Internal string           `vecmem:"-"`
//	}
//
// Vectors may be []float32, a fixed-size [N]float32 array, or an Embedding
// (value or pointer). Payload fields are addressable by Go field name, json tag
// name, or the alias given with name=.
//
// Resolution happens once per record type; the resulting Descriptor is
// immutable and shared process-wide.
package record
