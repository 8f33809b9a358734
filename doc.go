// Package vecmem provides an in-memory vector store for Go.
//
// Records are plain Go values that carry exactly one key and exactly one
// vector. They are kept in typed, named collections and searched by cosine
// similarity with a full scan.
//
// # Quick Start
//
//	type Doc struct {
//	    ID       int       `vecmem:"key"`
//	    Vector   []float32 `vecmem:"vector"`
//	    Title    string    `json:"title"`
//	    Category string    `vecmem:"name=category"`
//	}
//
//	store := vecmem.NewStore()
//	docs, _ := vecmem.GetOrCreateCollection[int, Doc](store, "docs")
//
//	docs.Upsert(ctx, Doc{ID: 1, Vector: []float32{1, 0}, Title: "a"})
//	docs.Upsert(ctx, Doc{ID: 2, Vector: []float32{0, 1}, Title: "b"})
//
//	results, _ := docs.Search([]float32{1, 0}).Top(2).Execute(ctx)
//	for _, r := range results {
//	    fmt.Println(r.Key, r.Score, r.Record.Title)
//	}
//
// Record types may instead implement RecordKey() K and
// RecordVector() []float32 (see package record).
//
// # Ranking
//
// Results are ordered by score descending. Equal scores are ordered by key
// ascending, so identical searches over identical data return identical
// results. Keys of integer, float and string kinds compare by value, byte
// arrays such as uuid.UUID compare bytewise; WithKeyOrder overrides the order.
//
// # Filtering
//
// Search accepts a Go predicate (Filter) and payload filters (Where). Payload
// filters on fields listed with WithIndexedFields are answered from a bitmap
// index before any record is scored:
//
//	docs, _ := vecmem.GetOrCreateCollection[int, Doc](store, "docs",
//	    vecmem.WithIndexedFields("category"))
//	results, _ := docs.Search(query).
//	    Where(metadata.Eq("category", "tech")).
//	    MinScore(0.5).
//	    Execute(ctx)
//
// # Dimensions
//
// By default vectors of different lengths can be stored; comparing them fails
// with *ErrDimensionMismatch at search time. WithStrictDimensions and
// WithDimension reject mismatched vectors at upsert instead.
//
// # Ad-hoc Corpora
//
// FindClosest ranks a slice of items against a query without a collection.
// FindClosestFunc computes the item vectors with a caller-supplied embedding
// function, with bounded concurrency and an optional rate limit.
package vecmem
