package catalog

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrKeywordIndexRequired is returned when a keyword index is not provided.
	ErrKeywordIndexRequired = errors.New("keyword index required")

	// ErrMalformedRecord indicates a line that is not a valid book record.
	ErrMalformedRecord = errors.New("malformed catalog record")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// rest of the catalog.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
