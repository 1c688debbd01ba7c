package storage

import (
	"context"

	"github.com/poiesic/bookfinder/core"
)

// VectorIndex provides nearest-neighbor search over item embeddings.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// FindSimilar finds items whose vectors are similar to the given vector.
	// Returns matches with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first), ties by lowest ID.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error)

	// GetVector returns the stored vector for an item.
	// Returns ErrNotFound if the item doesn't exist or has no vector.
	GetVector(ctx context.Context, id core.ID) ([]float32, error)
}

// ItemRepository provides operations for managing catalog items.
type ItemRepository interface {
	VectorIndex

	// AddItems adds one or more items to storage, replacing items with the same ID.
	// For items with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the items with generated IDs and timestamps populated.
	AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// UpdateItems updates existing items.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// DeleteItems removes items by their IDs.
	// Returns ErrNotFound if any item doesn't exist.
	DeleteItems(ctx context.Context, ids ...core.ID) error

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// GetItems retrieves multiple items by their IDs, in the order requested.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error)

	// ForEachItem calls fn for every item in ascending ID order.
	// Iteration stops at the first error returned by fn.
	ForEachItem(ctx context.Context, fn func(*core.Item) error) error

	// CountItems returns the number of stored items.
	CountItems(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// KeywordIndex provides keyword relevance search over item text.
type KeywordIndex interface {
	// IndexItems adds or replaces items in the index.
	IndexItems(ctx context.Context, items ...*core.Item) error

	// DeleteItems removes items from the index. Unknown IDs are ignored.
	DeleteItems(ctx context.Context, ids ...core.ID) error

	// Search scores items against normalized query tokens and returns the
	// top k, highest score first, ties by lowest ID. An empty token list
	// returns the first k items in ascending ID order.
	Search(ctx context.Context, tokens []string, k int) (core.CandidateSet, error)

	// Count returns the number of indexed items.
	Count() (uint64, error)

	// Close releases the index.
	Close() error
}
