package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
)

// noSimilarityFloor admits every stored vector, so the index behaves as a
// plain top-k inner-product search.
const noSimilarityFloor = -math.MaxFloat32

// SemanticGenerator produces nearest-neighbor candidates for an embedded query.
type SemanticGenerator struct {
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// NewSemanticGenerator creates a semantic generator.
func NewSemanticGenerator(embedder ai.Embedder, index storage.VectorIndex, logger *slog.Logger) *SemanticGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticGenerator{
		embedder: embedder,
		index:    index,
		logger:   logger.With("generator", "semantic"),
	}
}

// Generate embeds query, L2-normalizes the vector and returns the k items
// with the highest inner product. Embedding failures are reported as
// ErrEncoding, index failures as ErrIndexUnavailable.
func (g *SemanticGenerator) Generate(ctx context.Context, query string, k int) (core.CandidateSet, error) {
	if strings.TrimSpace(query) == "" {
		return core.CandidateSet{}, nil
	}

	vec, err := g.embedder.EmbedText(ctx, query)
	if err != nil {
		g.logger.Warn("query embedding failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	vec = core.NormalizeVector(vec)
	if isZero(vec) {
		return nil, fmt.Errorf("%w: embedder returned a zero vector", ErrEncoding)
	}

	matches, err := g.index.FindSimilar(ctx, vec, noSimilarityFloor, k)
	if err != nil {
		g.logger.Warn("vector search failed", "err", err)
		if errors.Is(err, storage.ErrIndexUnavailable) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	candidates := make(core.CandidateSet, len(matches))
	for i, m := range matches {
		candidates[i] = core.Candidate{Id: m.Id, Score: m.Score}
	}
	g.logger.Debug("semantic candidates", "count", len(candidates))
	return candidates, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
