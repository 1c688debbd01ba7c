// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package bookfinder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/ai/openai"
	"github.com/poiesic/bookfinder/cache"
	"github.com/poiesic/bookfinder/catalog"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/recommend"
	"github.com/poiesic/bookfinder/search"
	"github.com/poiesic/bookfinder/storage"
	"github.com/poiesic/bookfinder/storage/badger"
	"github.com/poiesic/bookfinder/storage/fulltext"
)

// ErrNotFound is returned by GetBook for unknown IDs.
var ErrNotFound = storage.ErrNotFound

// IndexSuffix names the keyword index directory kept next to the database.
const IndexSuffix = ".keywords"

// DefaultIndexPath returns the keyword index location for dbPath.
func DefaultIndexPath(dbPath string) string {
	return filepath.Clean(dbPath) + IndexSuffix
}

// Engine owns the catalog stores, the AI provider and a shared worker pool,
// and hands out searchers, recommenders and loaders built on them.
type Engine struct {
	backend  *badger.Backend
	items    storage.ItemRepository
	keywords storage.KeywordIndex
	provider ai.AIProvider
	pool     *ants.Pool
	cache    *cache.ResultCache
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions) error

type engineOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	indexPath   string
	inMemory    bool
	poolSize    int
	cacheConfig *cache.Config
	logger      *slog.Logger
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *engineOptions) error {
		if config == nil {
			return errors.New("ai config cannot be nil")
		}
		o.aiConfig = config
		return nil
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The engine closes it on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *engineOptions) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		o.provider = provider
		return nil
	}
}

// WithIndexPath places the keyword index outside the database directory.
func WithIndexPath(path string) Option {
	return func(o *engineOptions) error {
		o.indexPath = path
		return nil
	}
}

// WithInMemory keeps both stores in memory. The database path is ignored.
func WithInMemory() Option {
	return func(o *engineOptions) error {
		o.inMemory = true
		return nil
	}
}

// WithPoolSize sets the size of the worker pool shared by searchers and recommenders.
func WithPoolSize(size int) Option {
	return func(o *engineOptions) error {
		if size < 0 {
			return errors.New("pool size cannot be negative")
		}
		o.poolSize = size
		return nil
	}
}

// WithResultCache enables the search result cache for every searcher.
func WithResultCache(config cache.Config) Option {
	return func(o *engineOptions) error {
		if err := config.Validate(); err != nil {
			return err
		}
		o.cacheConfig = &config
		return nil
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// Open opens the catalog at dbPath. The keyword index lives next to it at
// DefaultIndexPath(dbPath) unless WithIndexPath says otherwise.
func Open(dbPath string, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	e := &Engine{logger: options.logger}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	backend, err := badger.OpenBackend(dbPath, options.inMemory)
	if err != nil {
		return nil, err
	}
	e.backend = backend

	items, err := badger.NewItemRepository(backend)
	if err != nil {
		return nil, err
	}
	e.items = items

	var keywords *fulltext.Index
	indexOpts := []fulltext.Option{fulltext.WithLogger(options.logger)}
	if options.inMemory {
		keywords, err = fulltext.NewMemoryIndex(indexOpts...)
	} else {
		indexPath := options.indexPath
		if indexPath == "" {
			indexPath = DefaultIndexPath(dbPath)
		}
		keywords, err = fulltext.Open(indexPath, indexOpts...)
	}
	if err != nil {
		return nil, err
	}
	e.keywords = keywords

	if options.provider != nil {
		e.provider = options.provider
	} else {
		provider, err := openai.NewProvider(options.aiConfig, openai.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
		e.provider = provider
	}

	poolSize := options.poolSize
	if poolSize == 0 {
		poolSize = max(runtime.NumCPU()*2, 2)
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	e.pool = pool

	if options.cacheConfig != nil {
		resultCache, err := cache.New(*options.cacheConfig, options.logger)
		if err != nil {
			return nil, err
		}
		e.cache = resultCache
	}

	ok = true
	return e, nil
}

// Close releases the pool, the provider and both stores. It reports the
// first error and keeps closing the rest.
func (e *Engine) Close() error {
	var firstErr error
	record := func(what string, err error) {
		if err == nil {
			return
		}
		e.logger.Error("error closing "+what, "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if e.pool != nil {
		e.pool.Release()
	}
	if e.cache != nil {
		e.cache.Close()
	}
	if e.provider != nil {
		record("AI provider", e.provider.Close())
	}
	if e.keywords != nil {
		record("keyword index", e.keywords.Close())
	}
	if e.items != nil {
		record("item repository", e.items.Close())
	}
	if e.backend != nil {
		record("backend storage", e.backend.Close())
	}
	return firstErr
}

// ItemRepository returns the underlying item store.
func (e *Engine) ItemRepository() storage.ItemRepository {
	return e.items
}

// KeywordIndex returns the underlying keyword index.
func (e *Engine) KeywordIndex() storage.KeywordIndex {
	return e.keywords
}

// NewSearcher creates a searcher on the shared pool and cache.
// Caller options are applied last.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(e.logger), search.WithPool(e.pool)}
	if e.cache != nil {
		base = append(base, search.WithCache(e.cache))
	}
	return search.NewSearcher(e.items, e.keywords, e.provider, append(base, opts...)...)
}

// NewRecommender creates a recommender on the shared pool.
func (e *Engine) NewRecommender(opts ...recommend.Option) (*recommend.Recommender, error) {
	base := []recommend.Option{recommend.WithLogger(e.logger), recommend.WithPool(e.pool)}
	return recommend.NewRecommender(e.items, append(base, opts...)...)
}

// NewLoader creates a catalog loader writing to both stores.
func (e *Engine) NewLoader(config *catalog.Config, progress io.Writer) (*catalog.Loader, error) {
	return catalog.NewLoader(e.items, e.keywords, config, progress, catalog.WithLogger(e.logger))
}

// GetBook returns a single item. Unknown IDs yield an error wrapping ErrNotFound.
func (e *Engine) GetBook(ctx context.Context, id core.ID) (*core.Item, error) {
	item, err := e.items.GetItem(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: book %d", ErrNotFound, id)
	}
	return item, err
}

// Ping checks that both stores answer.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.items.CountItems(ctx); err != nil {
		return fmt.Errorf("item repository: %w", err)
	}
	if _, err := e.keywords.Count(); err != nil {
		return fmt.Errorf("keyword index: %w", err)
	}
	return nil
}
