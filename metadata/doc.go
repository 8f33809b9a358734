// Package metadata provides typed field values, filters over record payload
// fields, and a Roaring Bitmap inverted index used to restrict search
// candidates.
//
// # Values
//
// Payload fields are converted to Values with FromAny:
//
//   - String: metadata.String("tech")
//   - Int: metadata.Int(2024)
//   - Float: metadata.Float(3.14)
//   - Bool: metadata.Bool(true)
//   - Array: metadata.Array(...)
//
// # Filter Operations
//
//   - Eq(field, value): Equality check
//   - Ne(field, value): Inequality check
//   - Gt, Gte, Lt, Lte: Numeric comparisons
//   - In(field, values...): Value in set
//   - Contains(field, substr): Substring match
//
// Filters in a FilterSet are combined with AND:
//
//	fs := metadata.NewFilterSet(
//	    metadata.Eq("category", "tech"),
//	    metadata.Gte("year", 2023),
//	)
//
// # Indexing
//
// Index keeps posting lists for a fixed set of fields. Eq and In filters on
// indexed fields compile to a bitmap; the remaining filters are evaluated per
// candidate.
package metadata
