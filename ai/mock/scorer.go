package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/bookfinder/ai"
)

// MockScorer is a test double for ai.Scorer.
type MockScorer struct {
	// ScoreFunc is called by Score if set.
	// If nil, scores by query term overlap.
	ScoreFunc func(ctx context.Context, query string, documents []string) ([]float32, error)

	callCount atomic.Int64
}

var _ ai.Scorer = (*MockScorer)(nil)

// NewMockScorer creates a mock scorer with default term-overlap behavior.
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// WithScoreFunc sets ScoreFunc and returns the mock for chaining.
func (m *MockScorer) WithScoreFunc(fn func(ctx context.Context, query string, documents []string) ([]float32, error)) *MockScorer {
	m.ScoreFunc = fn
	return m
}

// Score returns the fraction of query terms contained in each document.
func (m *MockScorer) Score(ctx context.Context, query string, documents []string) ([]float32, error) {
	m.callCount.Add(1)

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, documents)
	}

	terms := strings.Fields(strings.ToLower(query))
	scores := make([]float32, len(documents))
	if len(terms) == 0 {
		return scores, nil
	}
	for i, doc := range documents {
		doc = strings.ToLower(doc)
		hits := 0
		for _, term := range terms {
			if strings.Contains(doc, term) {
				hits++
			}
		}
		scores[i] = float32(hits) / float32(len(terms))
	}
	return scores, nil
}

// CallCount returns the number of times Score was called.
func (m *MockScorer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom behavior.
func (m *MockScorer) Reset() {
	m.callCount.Store(0)
	m.ScoreFunc = nil
}
