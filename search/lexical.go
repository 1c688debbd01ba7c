package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
)

// LexicalGenerator produces keyword-relevance candidates from a KeywordIndex.
type LexicalGenerator struct {
	index  storage.KeywordIndex
	logger *slog.Logger
}

// NewLexicalGenerator creates a lexical generator over index.
func NewLexicalGenerator(index storage.KeywordIndex, logger *slog.Logger) *LexicalGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LexicalGenerator{
		index:  index,
		logger: logger.With("generator", "lexical"),
	}
}

// Generate returns the top k items for query. A query with no tokens
// returns the first k items in ascending ID order.
func (g *LexicalGenerator) Generate(ctx context.Context, query string, k int) (core.CandidateSet, error) {
	tokens := Tokenize(query)

	candidates, err := g.index.Search(ctx, tokens, k)
	if err != nil {
		g.logger.Warn("keyword search failed", "tokens", len(tokens), "err", err)
		if errors.Is(err, storage.ErrIndexUnavailable) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	g.logger.Debug("lexical candidates", "tokens", tokens, "count", len(candidates))
	return candidates, nil
}
