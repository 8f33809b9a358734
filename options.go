package vecmem

import (
	"log/slog"

	"golang.org/x/time/rate"
)

type options struct {
	metricsCollector   MetricsCollector
	logger             *Logger
	collectionDefaults []CollectionOption
}

// Option configures a Store.
type Option func(*options)

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecmem.BasicMetricsCollector{}
//	store := vecmem.NewStore(vecmem.WithMetricsCollector(metrics))
//	// ... use store ...
//	stats := metrics.GetStats()
//	fmt.Printf("Upserts: %d, Avg latency: %dns\n", stats.UpsertCount, stats.UpsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecmem.NewJSONLogger(slog.LevelDebug)
//	store := vecmem.NewStore(vecmem.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCollectionDefaults sets options applied to every collection the store
// creates, before the options passed to GetOrCreateCollection.
func WithCollectionDefaults(opts ...CollectionOption) Option {
	return func(o *options) {
		o.collectionDefaults = append(o.collectionDefaults, opts...)
	}
}

type collectionOptions struct {
	strictDimensions bool
	dimension        int
	indexedFields    []string
	keyOrder         any // func(a, b K) int for the collection's K

	// defaultIndexedFields come from store defaults. Each collection indexes
	// only those its record type has.
	defaultIndexedFields []string
}

// CollectionOption configures a Collection at creation time. Options passed
// for an existing collection are ignored.
type CollectionOption func(*collectionOptions)

func applyCollectionOptions(defaults, optFns []CollectionOption) collectionOptions {
	var o collectionOptions
	for _, fn := range defaults {
		if fn != nil {
			fn(&o)
		}
	}
	o.defaultIndexedFields, o.indexedFields = o.indexedFields, nil
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// WithStrictDimensions validates vector length at upsert time instead of at
// comparison time. The first stored vector fixes the dimension unless
// WithDimension pinned it.
func WithStrictDimensions() CollectionOption {
	return func(o *collectionOptions) {
		o.strictDimensions = true
	}
}

// WithDimension pins the collection dimension and enables strict validation.
func WithDimension(dim int) CollectionOption {
	return func(o *collectionOptions) {
		o.strictDimensions = true
		o.dimension = dim
	}
}

// WithIndexedFields maintains a bitmap index for the named payload fields.
// Eq and In filters on these fields restrict the candidate set without
// evaluating each record. Names may be Go field names, json names or aliases.
//
// Passed to GetOrCreateCollection, an unknown field fails creation. Passed
// through WithCollectionDefaults, fields the record type lacks are skipped.
func WithIndexedFields(fields ...string) CollectionOption {
	return func(o *collectionOptions) {
		o.indexedFields = append(o.indexedFields, fields...)
	}
}

// WithKeyOrder overrides the key order used to break score ties and to order
// GetMany results. cmp returns a negative number when a sorts before b.
//
// The type parameter must match the collection key type.
func WithKeyOrder[K comparable](cmp func(a, b K) int) CollectionOption {
	return func(o *collectionOptions) {
		o.keyOrder = cmp
	}
}

type findOptions struct {
	minScore         float32
	hasMinScore      bool
	embedConcurrency int
	embedRate        rate.Limit
	embedBurst       int
	logger           *Logger
	metricsCollector MetricsCollector
}

// FindOption configures FindClosest and FindClosestFunc.
type FindOption func(*findOptions)

func applyFindOptions(optFns []FindOption) findOptions {
	o := findOptions{
		embedConcurrency: 1,
		embedRate:        rate.Inf,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.embedConcurrency < 1 {
		o.embedConcurrency = 1
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}

// WithMinScore drops matches scoring below s. The bound is inclusive.
func WithMinScore(s float32) FindOption {
	return func(o *findOptions) {
		o.minScore = s
		o.hasMinScore = true
	}
}

// WithEmbedConcurrency bounds the number of concurrent embedding calls made by
// FindClosestFunc. Values below 1 mean sequential.
func WithEmbedConcurrency(n int) FindOption {
	return func(o *findOptions) {
		o.embedConcurrency = n
	}
}

// WithEmbedRateLimit limits FindClosestFunc to r embedding calls per second
// with the given burst.
func WithEmbedRateLimit(r float64, burst int) FindOption {
	return func(o *findOptions) {
		if r <= 0 {
			o.embedRate = rate.Inf
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.embedRate = rate.Limit(r)
		o.embedBurst = burst
	}
}

// WithFindLogger configures logging for FindClosest calls.
func WithFindLogger(logger *Logger) FindOption {
	return func(o *findOptions) {
		o.logger = logger
	}
}

// WithFindMetrics configures a metrics collector for FindClosest calls.
func WithFindMetrics(mc MetricsCollector) FindOption {
	return func(o *findOptions) {
		o.metricsCollector = mc
	}
}
