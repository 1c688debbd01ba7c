package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/core"
)

const (
	// DefaultTopN is the number of results returned by a search.
	DefaultTopN = 10

	// DefaultRerankTextLength bounds the item text paired with the query, in runes.
	DefaultRerankTextLength = 1000
)

// Reranker orders candidates by a pairwise relevance scorer.
type Reranker struct {
	scorer     ai.Scorer
	textLength int
	logger     *slog.Logger
}

// NewReranker creates a reranker. A non-positive textLength uses
// DefaultRerankTextLength.
func NewReranker(scorer ai.Scorer, textLength int, logger *slog.Logger) *Reranker {
	if textLength <= 0 {
		textLength = DefaultRerankTextLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		scorer:     scorer,
		textLength: textLength,
		logger:     logger.With("component", "reranker"),
	}
}

// Rerank scores every (query, item text) pair in one batch, sorts by
// descending score and returns at most topN results. Equal scores keep the
// input order. A non-positive topN uses DefaultTopN. Empty input returns an
// empty result without calling the scorer.
func (r *Reranker) Rerank(ctx context.Context, query string, items []*core.Item, topN int) ([]core.RankedResult, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(items) == 0 {
		return []core.RankedResult{}, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.RerankText(r.textLength)
	}

	scores, err := r.scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRerank, err)
	}
	if len(scores) != len(items) {
		return nil, fmt.Errorf("%w: scorer returned %d scores for %d items", ErrRerank, len(scores), len(items))
	}

	results := make([]core.RankedResult, len(items))
	for i, item := range items {
		results[i] = core.RankedResult{Item: item, Score: scores[i]}
	}
	sortByScore(results)

	if len(results) > topN {
		results = results[:topN]
	}
	r.logger.Debug("reranked", "candidates", len(items), "returned", len(results))
	return results, nil
}

// RankByRating orders items by average rating, highest first, keeping input
// order among equal ratings. It ranks browse requests, which have no query
// to score against.
func RankByRating(items []*core.Item, topN int) []core.RankedResult {
	if topN <= 0 {
		topN = DefaultTopN
	}
	results := make([]core.RankedResult, len(items))
	for i, item := range items {
		results[i] = core.RankedResult{Item: item, Score: float32(item.AverageRating)}
	}
	sortByScore(results)
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

func sortByScore(results []core.RankedResult) {
	slices.SortStableFunc(results, func(a, b core.RankedResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
