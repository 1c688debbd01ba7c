package recommend

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
	"github.com/poiesic/bookfinder/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, items ...*core.Item) storage.ItemRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryItemRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	if len(items) > 0 {
		_, err = repo.AddItems(context.Background(), items...)
		require.NoError(t, err)
	}
	return repo
}

func vec(xs ...float32) []float32 {
	return core.NormalizeVector(xs)
}

// catalog: item 1 has no vector; 2, 3, 4 point roughly the same way; 5 is orthogonal.
func testCatalog() []*core.Item {
	return []*core.Item{
		{Id: 1, Title: "No Vector"},
		{Id: 2, Title: "Seed", Vector: vec(1, 0, 0)},
		{Id: 3, Title: "Close", Vector: vec(0.9, 0.436, 0)},
		{Id: 4, Title: "Closer Still", Vector: vec(0.8, 0.6, 0)},
		{Id: 5, Title: "Unrelated", Vector: vec(0, 0, 1)},
		{Id: 6, Title: "Other Seed", Vector: vec(0, 0.2, 1)},
	}
}

func newTestRecommender(t *testing.T, repo storage.ItemRepository, opts ...Option) *Recommender {
	t.Helper()
	r, err := NewRecommender(repo, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func itemIDs(items []*core.Item) []core.ID {
	out := make([]core.ID, len(items))
	for i, item := range items {
		out[i] = item.Id
	}
	return out
}

func TestNewRecommender(t *testing.T) {
	repo := newTestRepo(t)

	_, err := NewRecommender(nil)
	assert.Equal(t, ErrItemRepositoryRequired, err)

	_, err = NewRecommender(repo, WithMinSimilarity(2))
	assert.Error(t, err)

	_, err = NewRecommender(repo, WithMaxLimit(0))
	assert.Error(t, err)

	_, err = NewRecommender(repo, WithPool(nil))
	assert.Error(t, err)

	r, err := NewRecommender(repo, WithLogger(slog.Default()), WithMinSimilarity(0.5))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), r.minSimilarity)
	r.Release()
}

// Seed 1 has no vector and is skipped; seed 2's neighbors are 3 and 4.
func TestRecommend_SkipsSeedWithoutVector(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))

	items, err := r.Recommend(context.Background(), []core.ID{1, 2}, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3, 4}, itemIDs(items))
}

// Seeds 1 and 2 are each other's nearest neighbors. Each seed only looks at
// its limit+1 closest items, so seed 1 contributes 3 and seed 2 contributes 5.
func TestRecommend_MutualNeighborSeeds(t *testing.T) {
	repo := newTestRepo(t,
		&core.Item{Id: 1, Title: "One", Vector: vec(1, 0, 0)},
		&core.Item{Id: 2, Title: "Two", Vector: vec(0.8, 0.6, 0)},
		&core.Item{Id: 3, Title: "Three", Vector: vec(0.6, 0, 0.8)},
		&core.Item{Id: 4, Title: "Four", Vector: vec(0.5, 0, 0.866)},
		&core.Item{Id: 5, Title: "Five", Vector: vec(0, 1, 0)},
	)
	r := newTestRecommender(t, repo)

	items, err := r.Recommend(context.Background(), []core.ID{1, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3, 5}, itemIDs(items))
}

func TestRecommend_ExcludesAllSeeds(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...), WithMinSimilarity(-1))

	seeds := []core.ID{2, 3}
	items, err := r.Recommend(context.Background(), seeds, 10)
	require.NoError(t, err)
	for _, id := range itemIDs(items) {
		assert.NotContains(t, seeds, id)
	}
	assert.NotEmpty(t, items)
}

func TestRecommend_FirstSeedLeads(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))

	// seed 6 neighbors: 5; seed 2 neighbors: 3, 4
	items, err := r.Recommend(context.Background(), []core.ID{6, 2}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{5, 3, 4}, itemIDs(items))

	items, err = r.Recommend(context.Background(), []core.ID{2, 6}, 10)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3, 4, 5}, itemIDs(items))
}

func TestRecommend_TruncatesToLimit(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))

	items, err := r.Recommend(context.Background(), []core.ID{2, 6}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3, 4}, itemIDs(items))
}

func TestRecommend_LimitDefaultsAndCap(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...), WithMinSimilarity(-1), WithMaxLimit(2))

	items, err := r.Recommend(context.Background(), []core.ID{2}, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = r.Recommend(context.Background(), []core.ID{2}, 50)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRecommend_NoResolvableSeeds(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))

	for _, seeds := range [][]core.ID{nil, {1}, {99, 1}} {
		items, err := r.Recommend(context.Background(), seeds, 5)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestRecommend_DuplicateSeeds(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))

	items, err := r.Recommend(context.Background(), []core.ID{2, 2, 2}, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{3, 4}, itemIDs(items))
}

func TestRecommend_LookupFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	repo := &failingVectorRepo{ItemRepository: newTestRepo(t, testCatalog()...), err: boom}
	r := newTestRecommender(t, repo)

	_, err := r.Recommend(context.Background(), []core.ID{2}, 5)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, boom)
}

func TestRecommend_CancelledContext(t *testing.T) {
	r := newTestRecommender(t, newTestRepo(t, testCatalog()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Recommend(ctx, []core.ID{2}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerge(t *testing.T) {
	seeds := []core.ID{10, 20}
	results := []seedResult{
		{matches: []core.SimilarityMatch{{Id: 10}, {Id: 1}, {Id: 20}, {Id: 2}}},
		{matches: []core.SimilarityMatch{{Id: 2}, {Id: 3}, {Id: 4}}},
	}

	ids, resolved, errs := merge(seeds, results, 3)

	assert.Equal(t, []core.ID{1, 2, 3}, ids)
	assert.Equal(t, 2, resolved)
	assert.Empty(t, errs)
}

// failingVectorRepo fails every vector lookup.
type failingVectorRepo struct {
	storage.ItemRepository
	err error
}

func (f *failingVectorRepo) GetVector(context.Context, core.ID) ([]float32, error) {
	return nil, f.err
}
