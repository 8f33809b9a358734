package vecmem

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/vecmem/distance"
	"github.com/hupe1980/vecmem/record"
)

var (
	// ErrInvalidArgument is returned for out-of-range parameters (top < 1,
	// negative skip, blank collection name, nil record).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKeyTypeMismatch is returned when a record's key type is not assignable
	// to the collection key type.
	ErrKeyTypeMismatch = errors.New("key type mismatch")

	// ErrArgumentMismatch is returned when parallel inputs have different lengths.
	ErrArgumentMismatch = errors.New("argument mismatch")

	// ErrUnsupportedQueryType is returned when a query cannot be normalized to a vector.
	ErrUnsupportedQueryType = errors.New("unsupported query type")

	// ErrNotFound is returned by lookups that signal absence as an error, and by
	// operations on a collection that was deleted from its store.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidRecordShape indicates a record type that does not designate exactly
// one key and exactly one vector.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidRecordShape struct {
	Type  reflect.Type
	Role  string
	Count int
	cause error
}

func (e *ErrInvalidRecordShape) Error() string {
	return fmt.Sprintf("invalid record shape: %v", e.cause)
}

func (e *ErrInvalidRecordShape) Unwrap() error { return e.cause }

// ErrCollectionTypeConflict indicates a collection requested with a key/record
// type pair different from the one it was created with.
type ErrCollectionTypeConflict struct {
	Name         string
	ExistingKey  reflect.Type
	ExistingData reflect.Type
	RequestKey   reflect.Type
	RequestData  reflect.Type
}

func (e *ErrCollectionTypeConflict) Error() string {
	return fmt.Sprintf("collection %q exists as [%s, %s], requested as [%s, %s]",
		e.Name, e.ExistingKey, e.ExistingData, e.RequestKey, e.RequestData)
}

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *distance.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var se *record.ShapeError
	if errors.As(err, &se) {
		return &ErrInvalidRecordShape{Type: se.Type, Role: se.Role, Count: se.Count, cause: err}
	}
	var kt *record.KeyTypeError
	if errors.As(err, &kt) {
		return fmt.Errorf("%w: %w", ErrKeyTypeMismatch, err)
	}
	if errors.Is(err, record.ErrUnsupportedVector) {
		return fmt.Errorf("%w: %w", ErrUnsupportedQueryType, err)
	}

	return err
}
