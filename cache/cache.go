package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/metrics"
)

// Config controls the size and lifetime of cached search results.
type Config struct {
	// MaxEntries bounds the number of cached result lists.
	MaxEntries int64
	// TTL is how long a result list stays valid.
	TTL time.Duration
}

// DefaultConfig returns a small cache suitable for a single service instance.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 1024,
		TTL:        5 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxEntries < 1 {
		return errors.New("cache config: MaxEntries must be at least 1")
	}
	if c.TTL <= 0 {
		return errors.New("cache config: TTL must be positive")
	}
	return nil
}

// ResultCache memoizes ranked search results keyed by request.
// The catalog is immutable while serving, so entries only expire by TTL.
type ResultCache struct {
	cache  *ristretto.Cache[uint64, []core.RankedResult]
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a result cache. Every entry costs 1, so MaxEntries is the
// number of result lists retained.
func New(config Config, logger *slog.Logger) (*ResultCache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c, err := ristretto.NewCache(&ristretto.Config[uint64, []core.RankedResult]{
		NumCounters: config.MaxEntries * 10,
		MaxCost:     config.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	return &ResultCache{
		cache:  c,
		ttl:    config.TTL,
		logger: logger.With("component", "result-cache"),
	}, nil
}

// Key derives the cache key for a search request. Queries that differ only
// in whitespace share a key; case is significant because the embedder and
// scorer see it.
func Key(query string, filters *core.FilterSpec) uint64 {
	q := strings.Join(strings.Fields(query), " ")
	return uint64(core.IDFromContent(q + "\x00" + filters.String()))
}

// Get returns a copy of the cached results for key.
func (c *ResultCache) Get(key uint64) ([]core.RankedResult, bool) {
	results, ok := c.cache.Get(key)
	metrics.RecordCacheLookup(ok)
	if !ok {
		return nil, false
	}
	out := make([]core.RankedResult, len(results))
	copy(out, results)
	return out, true
}

// Put stores results under key. Admission is best-effort.
func (c *ResultCache) Put(key uint64, results []core.RankedResult) {
	stored := make([]core.RankedResult, len(results))
	copy(stored, results)
	if !c.cache.SetWithTTL(key, stored, 1, c.ttl) {
		c.logger.Debug("result set not admitted", "key", key)
	}
}

// Close stops the cache's background goroutines.
func (c *ResultCache) Close() {
	c.cache.Close()
}
