package search

import (
	"context"
	"testing"

	"github.com/poiesic/bookfinder/ai/mock"
	"github.com/poiesic/bookfinder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalGenerator_FindsPossessive(t *testing.T) {
	_, index := newTestCatalog(t, sampleCatalog()...)
	g := NewLexicalGenerator(index, nil)

	candidates, err := g.Generate(context.Background(), "dragon", 20)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1}, candidates.IDs())
}

func TestLexicalGenerator_EmptyQueryIsNaturalOrder(t *testing.T) {
	_, index := newTestCatalog(t, sampleCatalog()...)
	g := NewLexicalGenerator(index, nil)

	candidates, err := g.Generate(context.Background(), "?!", 3)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1, 2, 3}, candidates.IDs())
}

func TestLexicalGenerator_IndexFailure(t *testing.T) {
	g := NewLexicalGenerator(&stubKeywordIndex{err: errBoom}, nil)

	_, err := g.Generate(context.Background(), "dragon", 20)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.ErrorIs(t, err, errBoom)
}

func TestSemanticGenerator_NearestFirst(t *testing.T) {
	items := sampleCatalog()
	repo, _ := newTestCatalog(t, items...)

	// the query embeds to exactly the stored vector of "Soil Science"
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
		return mock.DeterministicVector("Soil Science", mock.DefaultDimension), nil
	})
	g := NewSemanticGenerator(embedder, repo, nil)

	candidates, err := g.Generate(context.Background(), "dirt", 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, core.ID(5), candidates[0].Id)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-5)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
}

func TestSemanticGenerator_NormalizesQueryVector(t *testing.T) {
	repo, _ := newTestCatalog(t, &core.Item{Id: 1, Title: "a", Vector: []float32{1, 0}})
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
		return []float32{3, 0}, nil
	})
	g := NewSemanticGenerator(embedder, repo, nil)

	candidates, err := g.Generate(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-6)
}

func TestSemanticGenerator_EncodingFailure(t *testing.T) {
	repo, _ := newTestCatalog(t)

	t.Run("embedder error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
			return nil, errBoom
		})
		_, err := NewSemanticGenerator(embedder, repo, nil).Generate(context.Background(), "q", 5)
		assert.ErrorIs(t, err, ErrEncoding)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("zero vector", func(t *testing.T) {
		embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
			return []float32{0, 0, 0}, nil
		})
		_, err := NewSemanticGenerator(embedder, repo, nil).Generate(context.Background(), "q", 5)
		assert.ErrorIs(t, err, ErrEncoding)
	})
}

func TestSemanticGenerator_BlankQuerySkipsEmbedding(t *testing.T) {
	repo, _ := newTestCatalog(t)
	embedder := mock.NewMockEmbedder()

	candidates, err := NewSemanticGenerator(embedder, repo, nil).Generate(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, embedder.CallCount())
}
