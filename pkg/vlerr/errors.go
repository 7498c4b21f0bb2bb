// Package vlerr defines the error kinds VectorLiteDB's components raise,
// as sentinel values wrapped with fmt.Errorf("...: %w", ...) the way the
// rest of the stack reports failures.
package vlerr

import "errors"

// Sentinel errors for four of the five error kinds; the fifth, IndexStale,
// is not an error (see below). Use errors.Is against these after wrapping
// with more specific context.
var (
	// ErrInvalidArgument marks a null/empty query vector, a negative k, or
	// a dimension mismatch — caller error, always raised.
	ErrInvalidArgument = errors.New("vectorlitedb: invalid argument")
	// ErrNotFound marks a missing resource, e.g. import_json's path.
	ErrNotFound = errors.New("vectorlitedb: not found")
	// ErrDanglingReference marks a relation target id absent from the
	// store. Callers generally don't see this directly: traversal and
	// reciprocity maintenance skip dangling references silently and only
	// log them at debug level.
	ErrDanglingReference = errors.New("vectorlitedb: dangling relation reference")
	// ErrStoreFailure marks an underlying document-store I/O fault.
	ErrStoreFailure = errors.New("vectorlitedb: store failure")
)

// IndexStale is not an error: updating an existing id's embedding degrades
// HNSW recall until the next rebuild, but the operation itself succeeds.
// It exists here only as documentation of that design decision — no value
// is ever returned or raised for it.
