package bookfinder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bookfinder/ai/mock"
	"github.com/poiesic/bookfinder/cache"
	"github.com/poiesic/bookfinder/catalog"
	"github.com/poiesic/bookfinder/core"
)

const testCatalog = `{"bookID": 1, "title": "Dragon's Lair", "authors": "Ann Smith", "google_category": "Fantasy", "publication_date": "1999", "average_rating": 4.2, "vector": [1, 0, 0]}
{"bookID": 2, "title": "Garden Notes", "authors": "Bob Jones", "google_category": "Gardening", "publication_date": "2010", "average_rating": 3.9, "vector": [0, 1, 0]}
{"bookID": 3, "title": "The Last Knight", "authors": "Ann Smith", "google_category": "Fantasy", "publication_date": "2005", "average_rating": 4.5, "vector": [0.9, 0.1, 0]}
{"bookID": 4, "title": "Dragon Riders", "authors": "Dee Long", "google_category": "Fantasy", "publication_date": "2012", "average_rating": 3.5, "vector": [0.8, 0, 0.2]}
`

func openTestEngine(t *testing.T, opts ...Option) (*Engine, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider().(*mock.MockProvider)
	opts = append([]Option{WithInMemory(), WithProvider(provider)}, opts...)
	e, err := Open("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, provider
}

func loadTestCatalog(t *testing.T, e *Engine) {
	t.Helper()
	loader, err := e.NewLoader(nil, nil)
	require.NoError(t, err)
	stats, err := loader.Load(context.Background(), strings.NewReader(testCatalog), 0)
	require.NoError(t, err)
	require.Equal(t, 4, stats.Loaded)
}

func TestOpen(t *testing.T) {
	t.Run("on disk", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "books")
		e, err := Open(dbPath, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)

		assert.NotNil(t, e.ItemRepository())
		assert.NotNil(t, e.KeywordIndex())
		assert.DirExists(t, DefaultIndexPath(dbPath))
		require.NoError(t, e.Close())
	})

	t.Run("custom index path", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "kw")
		e, err := Open(filepath.Join(dir, "db"), WithProvider(mock.NewMockProvider()), WithIndexPath(indexPath))
		require.NoError(t, err)
		defer e.Close()
		assert.DirExists(t, indexPath)
	})

	t.Run("error with file path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		e, err := Open(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, e)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := Open("", WithInMemory(), WithProvider(nil))
		assert.Error(t, err)
		_, err = Open("", WithInMemory(), WithPoolSize(-1))
		assert.Error(t, err)
		_, err = Open("", WithInMemory(), WithResultCache(cache.Config{}))
		assert.Error(t, err)
	})
}

func TestEngine_CloseClosesProvider(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	e, err := Open("", WithInMemory(), WithProvider(provider))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.True(t, provider.Closed())
}

func TestEngine_GetBook(t *testing.T) {
	e, _ := openTestEngine(t)
	loadTestCatalog(t, e)
	ctx := context.Background()

	item, err := e.GetBook(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "The Last Knight", item.Title)

	_, err = e.GetBook(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, e.Ping(ctx))
}

func TestEngine_SearchEndToEnd(t *testing.T) {
	e, provider := openTestEngine(t, WithResultCache(cache.Config{MaxEntries: 16, TTL: time.Minute}))
	loadTestCatalog(t, e)

	searcher, err := e.NewSearcher()
	require.NoError(t, err)
	defer searcher.Release()

	results, err := searcher.Search(context.Background(), "dragon", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var titles []string
	for _, r := range results {
		titles = append(titles, r.Item.Title)
	}
	assert.Contains(t, titles, "Dragon's Lair")
	assert.Contains(t, titles, "Dragon Riders")
	assert.Equal(t, 1, provider.GetMockScorer().CallCount())

	filtered, err := searcher.Search(context.Background(), "dragon", &core.FilterSpec{YearMin: 2010})
	require.NoError(t, err)
	require.NotEmpty(t, filtered)
	for _, r := range filtered {
		year, ok := r.Item.Year()
		require.True(t, ok)
		assert.GreaterOrEqual(t, year, 2010)
	}
}

func TestEngine_RecommendEndToEnd(t *testing.T) {
	e, _ := openTestEngine(t)
	loadTestCatalog(t, e)

	recommender, err := e.NewRecommender()
	require.NoError(t, err)
	defer recommender.Release()

	items, err := recommender.Recommend(context.Background(), []core.ID{1}, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, core.ID(3), items[0].Id)
	assert.Equal(t, core.ID(4), items[1].Id)
}

func TestEngine_NewLoaderUsesConfig(t *testing.T) {
	e, _ := openTestEngine(t)

	cfg := catalog.DefaultConfig()
	cfg.Strict = true
	loader, err := e.NewLoader(cfg, nil)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), strings.NewReader(`{"bookID": 1, "title": ""}`), 1)
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
}
