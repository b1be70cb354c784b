package document

import "errors"

var (
	// ErrValidation marks rejected input: missing title, short content,
	// empty query.
	ErrValidation = errors.New("validation failed")

	// ErrDimensionMismatch marks a similarity computation over vectors of
	// unequal length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrExternalService marks a failed call to the embedding provider or
	// the document store.
	ErrExternalService = errors.New("external service failure")

	// ErrNotFound marks a delete or read referencing an id or title with no
	// matching records.
	ErrNotFound = errors.New("not found")
)
