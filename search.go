package vecmem

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/vecmem/distance"
	"github.com/hupe1980/vecmem/internal/queue"
	"github.com/hupe1980/vecmem/metadata"
	"github.com/hupe1980/vecmem/record"
)

// SearchResult is one ranked record.
type SearchResult[K comparable, R any] struct {
	Key    K
	Record R
	Score  float32
}

// Search creates a new fluent search builder for the given query vector.
//
// The query may be a []float32, a [N]float32 array, a record.Embedding or a
// *record.Embedding.
//
// Example:
//
//	results, err := coll.Search(query).
//	    Top(5).
//	    Where(metadata.Eq("category", "tech")).
//	    Execute(ctx)
//
//	// Or with streaming:
//	for result, err := range coll.Search(query).Top(100).Stream(ctx) {
//	    if err != nil { break }
//	    if result.Score < threshold { break }
//	    process(result)
//	}
func (c *Collection[K, R]) Search(query any) *SearchBuilder[K, R] {
	return &SearchBuilder[K, R]{
		c:     c,
		query: query,
		top:   10, // Default top
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder[K comparable, R any] struct {
	c     *Collection[K, R]
	query any
	top   int
	skip  int

	// Filters
	filterFunc func(R) bool
	filters    []metadata.Filter

	minScore    float32
	hasMinScore bool
}

// Top sets the maximum number of results. It must be >= 1.
func (sb *SearchBuilder[K, R]) Top(n int) *SearchBuilder[K, R] {
	sb.top = n
	return sb
}

// Skip drops the n best results before taking Top.
func (sb *SearchBuilder[K, R]) Skip(n int) *SearchBuilder[K, R] {
	sb.skip = n
	return sb
}

// Filter restricts candidates to records for which fn returns true.
// Panics raised by fn propagate to the caller.
func (sb *SearchBuilder[K, R]) Filter(fn func(R) bool) *SearchBuilder[K, R] {
	sb.filterFunc = fn
	return sb
}

// Where restricts candidates to records whose payload fields match every
// filter. Filters on indexed fields are answered from the bitmap index.
func (sb *SearchBuilder[K, R]) Where(filters ...metadata.Filter) *SearchBuilder[K, R] {
	sb.filters = append(sb.filters, filters...)
	return sb
}

// MinScore drops results scoring below s. The bound is inclusive.
func (sb *SearchBuilder[K, R]) MinScore(s float32) *SearchBuilder[K, R] {
	sb.minScore = s
	sb.hasMinScore = true
	return sb
}

// Execute runs the search and returns the results, best first.
//
// Results are ordered by score descending; equal scores are ordered by key
// ascending. Without strict dimensions, a stored vector whose length differs
// from the query fails the search with *ErrDimensionMismatch.
//
// Candidates are captured under the collection's read lock. The Filter
// function, the key order and scoring run after it is released, so a filter
// may read the collection.
func (sb *SearchBuilder[K, R]) Execute(ctx context.Context) (results []SearchResult[K, R], err error) {
	c := sb.c
	start := time.Now()
	defer func() {
		c.metrics.RecordSearch(sb.top, time.Since(start), err)
		c.logger.LogSearch(ctx, sb.top, len(results), err)
	}()

	if sb.top < 1 {
		return nil, invalidArgument("top must be >= 1, got %d", sb.top)
	}
	if sb.skip < 0 {
		return nil, invalidArgument("skip must be >= 0, got %d", sb.skip)
	}

	query, err := record.ToVector(sb.query)
	if err != nil {
		return nil, translateError(err)
	}
	queryNorm := distance.Norm(query)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := sb.skip + sb.top
	if limit < sb.top {
		limit = 0 // overflow: keep everything
	}
	better := func(a, b SearchResult[K, R]) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return c.keyOrder(a.Key, b.Key) < 0
	}
	q := queue.NewBounded(limit, better)

	var fs *metadata.FilterSet
	if len(sb.filters) > 0 {
		fs = metadata.NewFilterSet(sb.filters...)
	}

	entries, err := c.snapshot(ctx, fs)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if i > 0 && i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		e := &entries[i]
		if sb.filterFunc != nil && !sb.filterFunc(e.rec) {
			continue
		}
		score, err := distance.CosineNormalized(query, queryNorm, e.vec, e.norm)
		if err != nil {
			return nil, translateError(err)
		}
		if sb.hasMinScore && score < sb.minScore {
			continue
		}
		q.Push(SearchResult[K, R]{Key: e.key, Record: e.rec, Score: score})
	}

	ranked := q.Drain()
	if sb.skip >= len(ranked) {
		return []SearchResult[K, R]{}, nil
	}
	return ranked[sb.skip:], nil
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder[K, R]) MustExecute(ctx context.Context) []SearchResult[K, R] {
	results, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Stream returns an iterator over search results, best first.
//
// The ranking is fully materialized before the first result is yielded; the
// iterator supports early termination by breaking from the loop. Errors are
// yielded once with a zero result.
func (sb *SearchBuilder[K, R]) Stream(ctx context.Context) iter.Seq2[SearchResult[K, R], error] {
	return func(yield func(SearchResult[K, R], error) bool) {
		results, err := sb.Execute(ctx)
		if err != nil {
			yield(SearchResult[K, R]{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns only the best result, or ErrNotFound if none matched.
// The builder keeps its own Top setting.
func (sb *SearchBuilder[K, R]) First(ctx context.Context) (SearchResult[K, R], error) {
	results, err := sb.single().Execute(ctx)
	if err != nil {
		return SearchResult[K, R]{}, err
	}
	if len(results) == 0 {
		return SearchResult[K, R]{}, ErrNotFound
	}
	return results[0], nil
}

// Count executes the search and returns the number of results.
func (sb *SearchBuilder[K, R]) Count(ctx context.Context) (int, error) {
	results, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// Exists checks if at least one result matches the search.
func (sb *SearchBuilder[K, R]) Exists(ctx context.Context) (bool, error) {
	results, err := sb.single().Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}

// single returns a copy of the builder limited to one result.
func (sb *SearchBuilder[K, R]) single() *SearchBuilder[K, R] {
	one := *sb
	one.top = 1
	return &one
}
