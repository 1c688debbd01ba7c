package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/cache"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/metrics"
	"github.com/poiesic/bookfinder/storage"
)

const (
	// DefaultCandidateK is the depth requested from each generator.
	DefaultCandidateK = 20
)

// Searcher runs hybrid search: lexical and semantic candidate generation in
// parallel, fusion, progressive filtering and relevance reranking.
type Searcher struct {
	items    storage.ItemRepository
	lexical  *LexicalGenerator
	semantic *SemanticGenerator
	filters  *FilterChain
	reranker *Reranker
	scorer   ai.Scorer
	cache    *cache.ResultCache

	pool     *ants.Pool
	ownsPool bool

	lexicalK   int
	semanticK  int
	topN       int
	textLength int
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLexicalK sets how many keyword candidates are requested. Default 20.
func WithLexicalK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("lexical k must be positive, got %d", k)
		}
		s.lexicalK = k
		return nil
	}
}

// WithSemanticK sets how many nearest neighbors are requested. Default 20.
func WithSemanticK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("semantic k must be positive, got %d", k)
		}
		s.semanticK = k
		return nil
	}
}

// WithTopN sets the maximum number of results returned. Default 10.
func WithTopN(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("topN must be positive, got %d", n)
		}
		s.topN = n
		return nil
	}
}

// WithRerankTextLength bounds the item text sent to the scorer, in runes.
func WithRerankTextLength(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("rerank text length must be positive, got %d", n)
		}
		s.textLength = n
		return nil
	}
}

// WithPool runs generators on a shared pool. The caller keeps ownership.
func WithPool(pool *ants.Pool) Option {
	return func(s *Searcher) error {
		if pool == nil {
			return errors.New("pool cannot be nil")
		}
		s.pool = pool
		return nil
	}
}

// WithCache memoizes results. The caller keeps ownership of the cache.
func WithCache(c *cache.ResultCache) Option {
	return func(s *Searcher) error {
		s.cache = c
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	items storage.ItemRepository,
	keywords storage.KeywordIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		items:       items,
		scorer:      provider.Scorer(),
		lexicalK:    DefaultCandidateK,
		semanticK:   DefaultCandidateK,
		topN:        DefaultTopN,
		textLength:  DefaultRerankTextLength,
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.pool == nil {
		// Each search needs at most two workers; queued searches block until one frees.
		pool, err := ants.NewPool(defaultPoolSize())
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.ownsPool = true
	}

	s.logger = s.logger.With("component", "searcher")
	s.lexical = NewLexicalGenerator(keywords, s.logger)
	s.semantic = NewSemanticGenerator(provider.Embedder(), items, s.logger)
	s.filters = NewFilterChain(s.logger)
	s.reranker = NewReranker(s.scorer, s.textLength, s.logger)

	return s, nil
}

// Release frees the worker pool if the searcher created it.
func (s *Searcher) Release() {
	if s.ownsPool {
		s.pool.Release()
	}
}

// Search returns up to topN items for query, constrained by filters.
func (s *Searcher) Search(ctx context.Context, query string, filters *core.FilterSpec) ([]core.RankedResult, error) {
	return s.SearchWithMonitor(ctx, query, filters, nil)
}

// SearchWithMonitor runs Search, reporting each stage to monitor.
//
// A blank query with filters browses the catalog: every item, in ID order,
// is filtered and the survivors are ranked by average rating. A blank query without filters is
// rejected with ErrEmptyQuery.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, filters *core.FilterSpec, monitor SearchMonitor) ([]core.RankedResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	start := time.Now()

	query = strings.TrimSpace(query)
	if filters != nil {
		f := *filters
		f.Genres = slices.Clone(filters.Genres)
		f.Normalize()
		if err := f.Validate(); err != nil {
			metrics.RecordSearch("invalid", time.Since(start))
			return nil, err
		}
		filters = &f
	}
	browse := query == ""
	if browse && filters.IsEmpty() {
		metrics.RecordSearch("invalid", time.Since(start))
		return nil, ErrEmptyQuery
	}

	monitor.Start(query, filters)

	var cacheKey uint64
	if s.cache != nil {
		cacheKey = cache.Key(query, filters)
		if cached, ok := s.cache.Get(cacheKey); ok {
			monitor.Finish(cached, true)
			metrics.RecordSearch("cached", time.Since(start))
			return cached, nil
		}
	}

	var (
		fused   core.FusedSet
		items   []*core.Item
		partial bool
		err     error
	)
	if browse {
		items, err = s.browse(ctx)
		fused = make(core.FusedSet, len(items))
		for i, item := range items {
			fused[i] = item.Id
		}
	} else {
		fused, partial, err = s.generate(ctx, query, monitor)
		if err == nil {
			items, err = s.items.GetItems(ctx, fused...)
			if err != nil {
				s.logger.Error("error retrieving candidate items", "count", len(fused), "err", err)
			}
		}
	}
	if err != nil {
		metrics.RecordSearch("error", time.Since(start))
		return nil, err
	}
	monitor.AfterFusion(fused)
	metrics.RecordCandidates("fused", len(fused))

	byID := make(map[core.ID]*core.Item, len(items))
	for _, item := range items {
		byID[item.Id] = item
	}

	filterStart := time.Now()
	kept, reports := s.filters.ApplyFused(fused, byID, filters)
	for _, r := range reports {
		monitor.AfterFilterStage(r)
	}
	survivors := make([]*core.Item, len(kept))
	for i, id := range kept {
		survivors[i] = byID[id]
	}
	metrics.RecordStage("filter", time.Since(filterStart))
	metrics.RecordCandidates("filtered", len(survivors))

	rerankStart := time.Now()
	var results []core.RankedResult
	if browse {
		results = RankByRating(survivors, s.topN)
	} else {
		results, err = s.reranker.Rerank(ctx, query, survivors, s.topN)
		if err != nil {
			s.logger.Error("rerank failed", "candidates", len(survivors), "err", err)
			metrics.RecordSearch("error", time.Since(start))
			return nil, err
		}
	}
	metrics.RecordStage("rerank", time.Since(rerankStart))
	monitor.AfterRerank(results)

	// Degraded results are never cached.
	if s.cache != nil && !partial {
		s.cache.Put(cacheKey, results)
	}

	outcome := "ok"
	switch {
	case partial:
		outcome = "partial"
	case len(results) == 0:
		outcome = "empty"
	}
	metrics.RecordSearch(outcome, time.Since(start))
	monitor.Finish(results, false)

	s.logger.Debug("search complete", "query", query, "filters", filters.String(),
		"fused", len(fused), "filtered", len(survivors), "results", len(results),
		"partial", partial, "elapsed", time.Since(start))
	return results, nil
}

type generatorResult struct {
	candidates core.CandidateSet
	err        error
}

// browse loads the whole catalog in ascending ID order for a filter-only request.
func (s *Searcher) browse(ctx context.Context) ([]*core.Item, error) {
	start := time.Now()
	var items []*core.Item
	err := s.items.ForEachItem(ctx, func(item *core.Item) error {
		items = append(items, item)
		return nil
	})
	metrics.RecordStage("browse", time.Since(start))
	if err != nil {
		s.logger.Error("error browsing catalog", "err", err)
		return nil, fmt.Errorf("browsing catalog: %w", err)
	}
	return items, nil
}

// generate runs both generators concurrently and fuses their output.
// partial reports that one generator failed and the other carried the search.
func (s *Searcher) generate(ctx context.Context, query string, monitor SearchMonitor) (core.FusedSet, bool, error) {
	var (
		wg       sync.WaitGroup
		lexical  generatorResult
		semantic generatorResult
	)

	wg.Add(2)
	s.submit(&wg, func() {
		start := time.Now()
		lexical.candidates, lexical.err = s.lexical.Generate(ctx, query, s.lexicalK)
		metrics.RecordStage("lexical", time.Since(start))
	}, &lexical)
	s.submit(&wg, func() {
		start := time.Now()
		semantic.candidates, semantic.err = s.semantic.Generate(ctx, query, s.semanticK)
		metrics.RecordStage("semantic", time.Since(start))
	}, &semantic)
	wg.Wait()

	monitor.AfterLexicalSearch(lexical.candidates, lexical.err)
	monitor.AfterSemanticSearch(semantic.candidates, semantic.err)

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if lexical.err != nil {
		s.recordFailure("lexical", lexical.err)
	} else {
		metrics.RecordCandidates("lexical", len(lexical.candidates))
		s.logger.Debug("lexical candidates", "ids", lexical.candidates.IDs())
	}
	if semantic.err != nil {
		s.recordFailure("semantic", semantic.err)
	} else {
		metrics.RecordCandidates("semantic", len(semantic.candidates))
		s.logger.Debug("semantic candidates", "ids", semantic.candidates.IDs())
	}

	if lexical.err != nil && semantic.err != nil {
		s.logger.Error("all candidate generators failed",
			"lexical_err", lexical.err, "semantic_err", semantic.err)
		return nil, false, fmt.Errorf("%w: %w", ErrAllGeneratorsFailed, errors.Join(lexical.err, semantic.err))
	}

	fuseStart := time.Now()
	fused := Merge(lexical.candidates, semantic.candidates)
	metrics.RecordStage("fusion", time.Since(fuseStart))

	partial := lexical.err != nil || semantic.err != nil
	return fused, partial, nil
}

// submit runs fn on the pool, or reports the submission error into result.
func (s *Searcher) submit(wg *sync.WaitGroup, fn func(), result *generatorResult) {
	err := s.pool.Submit(func() {
		defer wg.Done()
		fn()
	})
	if err != nil {
		result.err = fmt.Errorf("scheduling generator: %w", err)
		wg.Done()
	}
}

func (s *Searcher) recordFailure(generator string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, ErrEncoding):
		kind = "encoding"
	case errors.Is(err, ErrIndexUnavailable):
		kind = "index"
	}
	metrics.RecordGeneratorFailure(generator, kind)
	s.logger.Warn("candidate generator failed", "generator", generator, "kind", kind, "err", err)
}
