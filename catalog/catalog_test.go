package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
	"github.com/poiesic/bookfinder/storage/badger"
	"github.com/poiesic/bookfinder/storage/fulltext"
	"github.com/stretchr/testify/require"
)

func setupStores(t *testing.T) (storage.ItemRepository, *fulltext.Index) {
	t.Helper()

	repo, backend, err := badger.NewMemoryItemRepository()
	require.NoError(t, err)
	index, err := fulltext.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		repo.Close()
		backend.Close()
	})
	return repo, index
}

// flakyRepo fails AddItems a fixed number of times before delegating.
type flakyRepo struct {
	storage.ItemRepository
	failures int
	err      error
	calls    int
}

func (f *flakyRepo) AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.ItemRepository.AddItems(ctx, items...)
}

var errTransient = errors.New("transient write failure")

const sampleCatalog = `{"bookID": 1, "title": "Dragon's Lair", "authors": "Ann Smith", "google_category": "Fantasy", "publication_date": "1999-04-01", "average_rating": 4.2, "language": "en", "description": "A dragon story.", "vector": [3, 0, 4]}
{"bookID": 2, "title": "Garden Notes", "authors": "Bob Jones", "google_category": "Gardening", "published_year": "2010", "average_rating": 3.9, "vector": [0, 1, 0]}

{"book_id": 3, "title": "The Last Knight", "categories": "Fantasy, Adventure", "average_rating": 4.5}
`
