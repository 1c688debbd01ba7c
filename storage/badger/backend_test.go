package badger

import (
	"context"
	"testing"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.GetVector(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoItems(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InvalidQuery(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = backend.FindSimilar(ctx, []float32{1, 0}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = backend.FindSimilar(ctx, nil, 0, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func seedVectors(t *testing.T, repo storage.ItemRepository, vectors map[core.ID][]float32) {
	t.Helper()
	items := make([]*core.Item, 0, len(vectors))
	for id, vec := range vectors {
		items = append(items, &core.Item{Id: id, Title: "item", Vector: core.NormalizeVector(vec)})
	}
	_, err := repo.AddItems(context.Background(), items...)
	require.NoError(t, err)
}

func TestFindSimilar_WithItems(t *testing.T) {
	repo, backend, err := NewMemoryItemRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	seedVectors(t, repo, map[core.ID][]float32{
		1: {1.0, 0.0, 0.0},
		2: {0.9, 0.1, 0.0},
		3: {0.0, 0.0, 1.0},
	})
	_, err = repo.AddItems(context.Background(), &core.Item{Id: 4, Title: "no vector"})
	require.NoError(t, err)

	results, err := backend.FindSimilar(context.Background(), []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ID(1), results[0].Id)
	assert.Equal(t, core.ID(2), results[1].Id)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_ThresholdFiltering(t *testing.T) {
	repo, backend, err := NewMemoryItemRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	seedVectors(t, repo, map[core.ID][]float32{
		1: {1.0, 0.0, 0.0},
		2: {0.7, 0.3, 0.0},
		3: {0.3, 0.7, 0.0},
	})

	ctx := context.Background()
	query := []float32{1.0, 0.0, 0.0}

	t.Run("high threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.95, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("medium threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.6, 10)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("low threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.2, 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestFindSimilar_TiesBreakByLowestID(t *testing.T) {
	repo, backend, err := NewMemoryItemRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	vectors := map[core.ID][]float32{}
	for _, id := range []core.ID{9, 3, 7, 1, 5} {
		vectors[id] = []float32{0.9, 0.1, 0.0}
	}
	seedVectors(t, repo, vectors)

	results, err := backend.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []core.ID{1, 3, 5}, []core.ID{results[0].Id, results[1].Id, results[2].Id})
}

func TestFindSimilar_ContextCancelled(t *testing.T) {
	repo, backend, err := NewMemoryItemRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()
	seedVectors(t, repo, map[core.ID][]float32{1: {1, 0}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = backend.FindSimilar(ctx, []float32{1, 0}, 0, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetVector(t *testing.T) {
	repo, backend, err := NewMemoryItemRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	seedVectors(t, repo, map[core.ID][]float32{1: {3, 4}})
	_, err = repo.AddItems(ctx, &core.Item{Id: 2, Title: "no vector"})
	require.NoError(t, err)

	vec, err := backend.GetVector(ctx, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vec, 1e-6)

	_, err = backend.GetVector(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = backend.GetVector(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
