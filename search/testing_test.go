package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/bookfinder/ai/mock"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
	"github.com/poiesic/bookfinder/storage/badger"
	"github.com/poiesic/bookfinder/storage/fulltext"
	"github.com/stretchr/testify/require"
)

// newTestCatalog loads items into an in-memory repository and keyword index.
// Items without a vector get a deterministic one derived from their title.
func newTestCatalog(t *testing.T, items ...*core.Item) (storage.ItemRepository, *fulltext.Index) {
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

	if len(items) == 0 {
		return repo, index
	}
	for _, item := range items {
		if item.Vector == nil {
			item.Vector = mock.DeterministicVector(item.Title, mock.DefaultDimension)
		}
	}
	ctx := context.Background()
	_, err = repo.AddItems(ctx, items...)
	require.NoError(t, err)
	require.NoError(t, index.IndexItems(ctx, items...))
	return repo, index
}

func sampleCatalog() []*core.Item {
	return []*core.Item{
		{Id: 1, Title: "Dragon's Lair", Authors: "Ann Smith", Categories: "Fantasy",
			PublishedDate: "1999-04-01", AverageRating: 4.2, Language: "en",
			SearchText: "A young knight enters the lair of an ancient dragon."},
		{Id: 2, Title: "Garden Notes", Authors: "Bob Jones", Categories: "Gardening",
			PublishedDate: "2010", AverageRating: 3.9, Language: "en",
			SearchText: "Seasonal advice for growing vegetables."},
		{Id: 3, Title: "The Last Knight", Authors: "Ann Smith", Categories: "Fantasy, Adventure",
			PublishedDate: "2005-01-01", AverageRating: 4.5, Language: "en",
			SearchText: "A knight's final quest across the northern kingdoms."},
		{Id: 4, Title: "Cuentos de Hadas", Authors: "Luis Garcia", Categories: "",
			PublishedDate: "unknown", AverageRating: 3.1, Language: "es",
			SearchText: "Historias de hadas para niños."},
		{Id: 5, Title: "Soil Science", Authors: "Carol White", Categories: "Science",
			PublishedDate: "2018-06-30", AverageRating: 4.0, Language: "en",
			SearchText: "An introduction to soil chemistry."},
	}
}

// stubKeywordIndex is a KeywordIndex whose Search result is fixed.
type stubKeywordIndex struct {
	candidates core.CandidateSet
	err        error
}

var _ storage.KeywordIndex = (*stubKeywordIndex)(nil)

func (s *stubKeywordIndex) IndexItems(context.Context, ...*core.Item) error { return nil }
func (s *stubKeywordIndex) DeleteItems(context.Context, ...core.ID) error   { return nil }
func (s *stubKeywordIndex) Count() (uint64, error)                         { return uint64(len(s.candidates)), nil }
func (s *stubKeywordIndex) Close() error                                   { return nil }

func (s *stubKeywordIndex) Search(context.Context, []string, int) (core.CandidateSet, error) {
	return s.candidates, s.err
}

var errBoom = errors.New("boom")
