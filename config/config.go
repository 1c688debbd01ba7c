package config

import (
	"time"

	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/cache"
)

// Config is the service configuration for the bookfinder binary.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	AI        AIConfig        `koanf:"ai"`
	Search    SearchConfig    `koanf:"search"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig locates the item store and keyword index.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required_without=InMemory"`
	IndexPath string `koanf:"index_path"` // defaults to <path>.keywords
	InMemory  bool   `koanf:"in_memory"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	EmbeddingHost      string        `koanf:"embedding_host" validate:"required,url"`
	EmbeddingModel     string        `koanf:"embedding_model" validate:"required"`
	EmbeddingBatchSize int           `koanf:"embedding_batch_size" validate:"min=1"`
	RerankHost         string        `koanf:"rerank_host" validate:"required,url"`
	RerankModel        string        `koanf:"rerank_model"`
	RerankTimeout      time.Duration `koanf:"rerank_timeout" validate:"gt=0"`
	MaxRetries         int           `koanf:"max_retries" validate:"min=1,max=10"`
	RetryDelay         time.Duration `koanf:"retry_delay" validate:"min=0"`
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	LexicalK         int `koanf:"lexical_k" validate:"min=1,max=1000"`
	SemanticK        int `koanf:"semantic_k" validate:"min=1,max=1000"`
	TopN             int `koanf:"top_n" validate:"min=1,max=100"`
	RerankTextLength int `koanf:"rerank_text_length" validate:"min=1"`
	PoolSize         int `koanf:"pool_size" validate:"min=0"` // 0 = 2 * NumCPU
}

// RecommendConfig tunes recommendations.
type RecommendConfig struct {
	MinSimilarity float64 `koanf:"min_similarity" validate:"gte=-1,lte=1"`
	DefaultLimit  int     `koanf:"default_limit" validate:"min=1,ltefield=MaxLimit"`
	MaxLimit      int     `koanf:"max_limit" validate:"min=1"`
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	MaxEntries int64         `koanf:"max_entries" validate:"min=1"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required,hostname_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"` // 0 disables rate limiting
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	cacheDefaults := cache.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path: "bookfinder.db",
		},
		AI: AIConfig{
			EmbeddingHost:      aiDefaults.EmbeddingHost,
			EmbeddingModel:     aiDefaults.EmbeddingModel,
			EmbeddingBatchSize: aiDefaults.EmbeddingBatchSize,
			RerankHost:         aiDefaults.RerankHost,
			RerankModel:        aiDefaults.RerankModel,
			RerankTimeout:      aiDefaults.RerankTimeout,
			MaxRetries:         aiDefaults.MaxRetries,
			RetryDelay:         aiDefaults.RetryDelay,
		},
		Search: SearchConfig{
			LexicalK:         20,
			SemanticK:        20,
			TopN:             10,
			RerankTextLength: 1000,
		},
		Recommend: RecommendConfig{
			MinSimilarity: 0.3,
			DefaultLimit:  5,
			MaxLimit:      100,
		},
		Cache: CacheConfig{
			Enabled:    false,
			MaxEntries: cacheDefaults.MaxEntries,
			TTL:        cacheDefaults.TTL,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:5001",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// AIConfig converts the section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithEmbeddingBatchSize(c.AI.EmbeddingBatchSize),
		ai.WithRerankHost(c.AI.RerankHost),
		ai.WithRerankModel(c.AI.RerankModel),
		ai.WithRerankTimeout(c.AI.RerankTimeout),
		ai.WithRetries(c.AI.MaxRetries, c.AI.RetryDelay),
	)
}

// CacheConfig converts the section into a cache.Config.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{MaxEntries: c.Cache.MaxEntries, TTL: c.Cache.TTL}
}
