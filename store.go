package vecmem

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/vecmem/record"
)

// handle is the type-erased view of a Collection held by a Store.
type handle interface {
	keyType() reflect.Type
	dataType() reflect.Type
	markDeleted()
}

// Store is a registry of named collections.
//
// Names are unique within a Store. Each collection keeps the key and record
// types it was created with; requesting it with other types fails with
// *ErrCollectionTypeConflict. A Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]handle

	opts options
}

// NewStore creates an empty Store.
func NewStore(optFns ...Option) *Store {
	return &Store{
		collections: make(map[string]handle),
		opts:        applyOptions(optFns),
	}
}

// GetOrCreateCollection returns the collection registered under name, creating
// it if absent.
//
// The record type R is resolved before anything is registered, so a record type
// with an invalid shape never leaves a collection behind. When several
// goroutines race to create the same name, exactly one instance is created and
// returned to all of them. Collection options only apply on creation.
func GetOrCreateCollection[K comparable, R any](s *Store, name string, optFns ...CollectionOption) (*Collection[K, R], error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("collection name must not be blank")
	}

	s.mu.RLock()
	h, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return typedCollection[K, R](name, h)
	}

	desc, err := record.ResolveKeyed[K, R]()
	if err != nil {
		err = translateError(err)
		s.opts.logger.LogCollection(context.Background(), "create", name, err)
		return nil, err
	}

	c, err := newCollection(name, desc, s.opts.logger, s.opts.metricsCollector,
		applyCollectionOptions(s.opts.collectionDefaults, optFns))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if h, ok := s.collections[name]; ok {
		s.mu.Unlock()
		return typedCollection[K, R](name, h)
	}
	s.collections[name] = c
	s.mu.Unlock()

	s.opts.logger.LogCollection(context.Background(), "created", name, nil)
	return c, nil
}

// GetCollection returns the collection registered under name.
// It fails with ErrNotFound when no such collection exists.
func GetCollection[K comparable, R any](s *Store, name string) (*Collection[K, R], error) {
	s.mu.RLock()
	h, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	return typedCollection[K, R](name, h)
}

func typedCollection[K comparable, R any](name string, h handle) (*Collection[K, R], error) {
	c, ok := h.(*Collection[K, R])
	if !ok {
		return nil, &ErrCollectionTypeConflict{
			Name:         name,
			ExistingKey:  h.keyType(),
			ExistingData: h.dataType(),
			RequestKey:   reflect.TypeFor[K](),
			RequestData:  reflect.TypeFor[R](),
		}
	}
	return c, nil
}

// CollectionExists reports whether a collection named name is registered.
func (s *Store) CollectionExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[name]
	return ok
}

// ListCollectionNames returns the registered collection names in lexicographic order.
func (s *Store) ListCollectionNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	s.mu.RUnlock()

	slices.Sort(names)
	return names
}

// DeleteCollection removes the collection named name and releases its records.
// Existing handles to it report Exists() == false and fail with ErrNotFound.
// Deleting an absent name is a no-op.
func (s *Store) DeleteCollection(name string) {
	s.mu.Lock()
	h, ok := s.collections[name]
	if ok {
		delete(s.collections, name)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	h.markDeleted()
	s.opts.logger.LogCollection(context.Background(), "deleted", name, nil)
}
