package recommend

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrLookupFailed is returned when every seed lookup failed for a reason
	// other than the seed having no vector.
	ErrLookupFailed = errors.New("seed lookups failed")
)
