package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/metrics"
	"github.com/poiesic/bookfinder/storage"
)

const (
	// DefaultMinSimilarity is the lowest neighbor similarity considered related.
	DefaultMinSimilarity = 0.3

	// DefaultLimit is used when a request does not name a positive limit.
	DefaultLimit = 5

	// DefaultMaxLimit caps the number of recommendations per request.
	DefaultMaxLimit = 100
)

// Recommender derives item-to-item recommendations from stored vectors.
type Recommender struct {
	items         storage.ItemRepository
	pool          *ants.Pool
	ownsPool      bool
	minSimilarity float32
	maxLimit      int
	logger        *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the neighbor similarity floor. Default 0.3.
func WithMinSimilarity(min float32) Option {
	return func(r *Recommender) error {
		if min < -1 || min > 1 {
			return fmt.Errorf("min similarity must be within [-1, 1], got %v", min)
		}
		r.minSimilarity = min
		return nil
	}
}

// WithMaxLimit caps the limit a caller may request. Default 100.
func WithMaxLimit(n int) Option {
	return func(r *Recommender) error {
		if n < 1 {
			return fmt.Errorf("max limit must be positive, got %d", n)
		}
		r.maxLimit = n
		return nil
	}
}

// WithPool runs seed lookups on a shared pool. The caller keeps ownership.
func WithPool(pool *ants.Pool) Option {
	return func(r *Recommender) error {
		if pool == nil {
			return errors.New("pool cannot be nil")
		}
		r.pool = pool
		return nil
	}
}

// NewRecommender creates a recommender over the item repository's vectors.
func NewRecommender(items storage.ItemRepository, opts ...Option) (*Recommender, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}

	r := &Recommender{
		items:         items,
		minSimilarity: DefaultMinSimilarity,
		maxLimit:      DefaultMaxLimit,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.pool == nil {
		poolSize := runtime.NumCPU()
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		r.pool = pool
		r.ownsPool = true
	}
	r.logger = r.logger.With("component", "recommender")

	return r, nil
}

// Release frees the worker pool if the recommender created it.
func (r *Recommender) Release() {
	if r.ownsPool {
		r.pool.Release()
	}
}

// seedResult holds one seed's neighbors. skip names why the seed contributed
// nothing; err is set only for unexpected lookup failures.
type seedResult struct {
	matches []core.SimilarityMatch
	skip    string
	err     error
}

// Recommend returns up to limit items related to the seeds.
//
// Seeds are deduplicated; seeds without a stored vector are skipped. Each
// seed's limit+1 nearest neighbors are merged in seed order, the first
// occurrence of an item wins, and no seed is ever recommended. A non-positive limit uses
// DefaultLimit. When no seed resolves the result is empty.
func (r *Recommender) Recommend(ctx context.Context, seeds []core.ID, limit int) ([]*core.Item, error) {
	start := time.Now()
	defer func() { metrics.RecordRecommend(time.Since(start)) }()

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}
	seeds = DedupeSeeds(seeds)
	if len(seeds) == 0 {
		return []*core.Item{}, nil
	}

	// One extra neighbor covers the seed matching its own vector.
	k := limit + 1

	results := make([]seedResult, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.lookup(ctx, seed, k)
		})
		if err != nil {
			wg.Done()
			results[i] = seedResult{skip: "lookup_error", err: fmt.Errorf("scheduling lookup: %w", err)}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, resolved, errs := merge(seeds, results, limit)
	for i, res := range results {
		if res.skip != "" {
			metrics.RecordSeedSkipped(res.skip)
			r.logger.Debug("seed skipped", "seed", seeds[i], "reason", res.skip, "err", res.err)
		}
	}
	if resolved == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, errors.Join(errs...))
	}
	if len(ids) == 0 {
		return []*core.Item{}, nil
	}

	items, err := r.items.GetItems(ctx, ids...)
	if err != nil {
		r.logger.Error("error retrieving recommended items", "count", len(ids), "err", err)
		return nil, err
	}
	r.logger.Debug("recommendations", "seeds", len(seeds), "resolved", resolved, "returned", len(items))
	return items, nil
}

func (r *Recommender) lookup(ctx context.Context, seed core.ID, k int) seedResult {
	vector, err := r.items.GetVector(ctx, seed)
	if errors.Is(err, storage.ErrNotFound) {
		return seedResult{skip: "no_vector"}
	}
	if err != nil {
		r.logger.Warn("seed vector lookup failed", "seed", seed, "err", err)
		return seedResult{skip: "lookup_error", err: err}
	}

	matches, err := r.items.FindSimilar(ctx, vector, r.minSimilarity, k)
	if err != nil {
		r.logger.Warn("neighbor search failed", "seed", seed, "err", err)
		return seedResult{skip: "lookup_error", err: err}
	}
	return seedResult{matches: matches}
}

// merge is the single writer over per-seed results. It walks seeds in
// request order and returns at most limit neighbor IDs, excluding every seed.
func merge(seeds []core.ID, results []seedResult, limit int) (ids []core.ID, resolved int, errs []error) {
	seen := make(map[core.ID]struct{}, len(seeds)+limit)
	for _, seed := range seeds {
		seen[seed] = struct{}{}
	}

	ids = make([]core.ID, 0, limit)
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
		}
		if res.skip != "" {
			continue
		}
		resolved++
		for _, m := range res.matches {
			if len(ids) == limit {
				break
			}
			if _, ok := seen[m.Id]; ok {
				continue
			}
			seen[m.Id] = struct{}{}
			ids = append(ids, m.Id)
		}
	}
	return ids, resolved, errs
}
