package vecmem

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/vecmem/distance"
	"github.com/hupe1980/vecmem/internal/queue"
	"github.com/hupe1980/vecmem/record"
)

// Match is one ranked corpus item.
type Match[T any] struct {
	Item  T
	Index int // position in the input corpus
	Score float32
}

// EmbedFunc produces the vector for a corpus item.
type EmbedFunc[T any] func(ctx context.Context, item T) ([]float32, error)

// FindClosest ranks items by the cosine similarity of their vectors to query
// and returns the best topK, without requiring a Collection.
//
// vectors[i] is the vector of items[i]. Matches are ordered by score
// descending; equal scores keep their input order. An empty corpus yields an
// empty result.
func FindClosest[T any](ctx context.Context, query any, items []T, vectors [][]float32, topK int, optFns ...FindOption) (matches []Match[T], err error) {
	o := applyFindOptions(optFns)
	start := time.Now()
	defer func() {
		o.metricsCollector.RecordFindClosest(len(items), time.Since(start), err)
		o.logger.LogFindClosest(ctx, len(items), topK, len(matches), err)
	}()

	if topK < 1 {
		return nil, invalidArgument("topK must be >= 1, got %d", topK)
	}
	if len(items) != len(vectors) {
		return nil, fmt.Errorf("%w: %d items, %d vectors", ErrArgumentMismatch, len(items), len(vectors))
	}

	return rankCorpus(ctx, query, items, vectors, topK, o)
}

// FindClosestFunc is FindClosest with corpus vectors produced by embed.
//
// embed is called once per item, with at most WithEmbedConcurrency calls in
// flight and, when WithEmbedRateLimit is set, no faster than the configured
// rate. The first embedding error cancels the remaining calls and is returned.
func FindClosestFunc[T any](ctx context.Context, query any, items []T, embed EmbedFunc[T], topK int, optFns ...FindOption) (matches []Match[T], err error) {
	o := applyFindOptions(optFns)
	start := time.Now()
	defer func() {
		o.metricsCollector.RecordFindClosest(len(items), time.Since(start), err)
		o.logger.LogFindClosest(ctx, len(items), topK, len(matches), err)
	}()

	if topK < 1 {
		return nil, invalidArgument("topK must be >= 1, got %d", topK)
	}
	if embed == nil {
		return nil, invalidArgument("embed function must not be nil")
	}
	if _, err := record.ToVector(query); err != nil {
		return nil, translateError(err)
	}

	vectors, err := embedAll(ctx, items, embed, o)
	if err != nil {
		return nil, err
	}

	return rankCorpus(ctx, query, items, vectors, topK, o)
}

func embedAll[T any](ctx context.Context, items []T, embed EmbedFunc[T], o findOptions) ([][]float32, error) {
	var limiter *rate.Limiter
	if o.embedRate != rate.Inf {
		limiter = rate.NewLimiter(o.embedRate, o.embedBurst)
	}

	vectors := make([][]float32, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.embedConcurrency)

	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			vec, err := embed(gctx, items[i])
			if err != nil {
				return fmt.Errorf("embed item %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func rankCorpus[T any](ctx context.Context, query any, items []T, vectors [][]float32, topK int, o findOptions) ([]Match[T], error) {
	q, err := record.ToVector(query)
	if err != nil {
		return nil, translateError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Match[T]{}, nil
	}

	queryNorm := distance.Norm(q)
	heap := queue.NewBounded(topK, func(a, b Match[T]) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Index < b.Index
	})

	for i, vec := range vectors {
		if i > 0 && i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		score, err := distance.CosineNormalized(q, queryNorm, vec, distance.Norm(vec))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, translateError(err))
		}
		if o.hasMinScore && score < o.minScore {
			continue
		}
		heap.Push(Match[T]{Item: items[i], Index: i, Score: score})
	}

	return heap.Drain(), nil
}
